// Package journal records ticks.
//
// A Recorder is a quill.Hook that turns every TickReport into an Entry and
// hands batches of entries to a Sink. WriterSink writes JSON lines to any
// io.Writer; S3Sink uploads each batch as one object.
package journal
