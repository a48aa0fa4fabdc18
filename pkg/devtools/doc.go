// Package devtools serves a live view of a quill root over HTTP.
//
// An Inspector is a quill.Hook. After each tick it copies what it needs
// from the root (committed tree, reactive graph, instances and a tick
// summary), so HTTP handlers never touch the root from another goroutine.
// The Server exposes those copies and streams tick summaries to WebSocket
// clients:
//
//	GET /healthz
//	GET /ticks          recent tick summaries (?limit=n)
//	GET /ticks/{tick}   one tick summary
//	GET /tree           committed tree as text (?format=json for JSON)
//	GET /graph          reactive graph
//	GET /instances      mounted component instances
//	GET /ws             live tick stream
package devtools
