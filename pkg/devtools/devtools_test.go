package devtools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"github.com/vango-dev/quill/pkg/quill"
	"github.com/vango-dev/quill/pkg/reactive"
	"github.com/vango-dev/quill/pkg/view"
)

func newCounterRoot(t *testing.T) (*quill.Root, *reactive.Signal[int]) {
	t.Helper()
	root := quill.New()
	count := reactive.NewSignal(root.Runtime(), 0)
	counter := view.Define("Counter", func(cx *view.Cx) *view.Node {
		return view.Box(view.Label(view.Textf("count %d", count.Get())))
	})
	if err := root.Mount(counter, nil); err != nil {
		t.Fatal(err)
	}
	return root, count
}

func flush(t *testing.T, root *quill.Root) {
	t.Helper()
	if _, err := root.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func TestServerEndpoints(t *testing.T) {
	defer goleak.VerifyNone(t)

	root, count := newCounterRoot(t)
	ins := NewInspector(root)
	extra := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("extra"))
	})
	srv := httptest.NewServer(NewServer(ins, WithHandler("/extra", extra)))
	defer srv.Close()

	flush(t, root)
	count.Set(1)
	flush(t, root)

	t.Run("healthz", func(t *testing.T) {
		code, body := get(t, srv.URL+"/healthz")
		if code != http.StatusOK || body != "ok\n" {
			t.Errorf("healthz = %d %q", code, body)
		}
	})

	t.Run("extra handler", func(t *testing.T) {
		if _, body := get(t, srv.URL+"/extra"); body != "extra" {
			t.Errorf("extra = %q", body)
		}
	})

	t.Run("ticks", func(t *testing.T) {
		_, body := get(t, srv.URL+"/ticks")
		var ticks []TickSummary
		if err := json.Unmarshal([]byte(body), &ticks); err != nil {
			t.Fatal(err)
		}
		if len(ticks) != 2 {
			t.Fatalf("got %d ticks, want 2", len(ticks))
		}
		if diff := cmp.Diff(map[string]int{"Insert": 1}, ticks[0].Ops); diff != "" {
			t.Errorf("first tick ops (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(map[string]int{"UpdateProps": 1}, ticks[1].Ops); diff != "" {
			t.Errorf("second tick ops (-want +got):\n%s", diff)
		}

		_, body = get(t, srv.URL+"/ticks?limit=1")
		var last []TickSummary
		if err := json.Unmarshal([]byte(body), &last); err != nil {
			t.Fatal(err)
		}
		if len(last) != 1 || last[0].Tick != ticks[1].Tick {
			t.Errorf("limit=1 returned %+v", last)
		}
	})

	t.Run("single tick", func(t *testing.T) {
		first := ins.Ticks(0)[0]
		code, body := get(t, srv.URL+"/ticks/"+jsonNumber(first.Tick))
		if code != http.StatusOK {
			t.Fatalf("status = %d", code)
		}
		var got TickSummary
		if err := json.Unmarshal([]byte(body), &got); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(first, got); diff != "" {
			t.Errorf("tick mismatch (-want +got):\n%s", diff)
		}

		if code, _ := get(t, srv.URL+"/ticks/9999"); code != http.StatusNotFound {
			t.Errorf("missing tick status = %d, want 404", code)
		}
		if code, _ := get(t, srv.URL+"/ticks/abc"); code != http.StatusBadRequest {
			t.Errorf("bad tick status = %d, want 400", code)
		}
	})

	t.Run("tree", func(t *testing.T) {
		_, body := get(t, srv.URL+"/tree")
		want := "<Counter/> #1\n  <box> #2\n    <label> #3\n      \"count 1\" #4\n"
		if body != want {
			t.Errorf("tree:\n%s\nwant:\n%s", body, want)
		}

		_, body = get(t, srv.URL+"/tree?format=json")
		var node view.Node
		if err := json.Unmarshal([]byte(body), &node); err != nil {
			t.Fatal(err)
		}
		if node.Kind != view.KindComponent || node.Ref != 1 {
			t.Errorf("json tree root = %+v", node)
		}
	})

	t.Run("graph and instances", func(t *testing.T) {
		_, body := get(t, srv.URL+"/graph")
		var graph []reactive.NodeInfo
		if err := json.Unmarshal([]byte(body), &graph); err != nil {
			t.Fatalf("decode graph: %v\n%s", err, body)
		}
		if len(graph) == 0 {
			t.Error("graph is empty")
		}

		_, body = get(t, srv.URL+"/instances")
		var instances []quill.InstanceInfo
		if err := json.Unmarshal([]byte(body), &instances); err != nil {
			t.Fatal(err)
		}
		if len(instances) != 1 || instances[0].Component != "Counter" || instances[0].Renders != 2 {
			t.Errorf("instances = %+v", instances)
		}
	})

	t.Run("no websocket without hub", func(t *testing.T) {
		if code, _ := get(t, srv.URL+"/ws"); code != http.StatusNotFound {
			t.Errorf("ws status = %d, want 404", code)
		}
	})
}

func jsonNumber(n uint64) string {
	data, _ := json.Marshal(n)
	return string(data)
}

func TestInspectorHistory(t *testing.T) {
	root, count := newCounterRoot(t)
	ins := NewInspector(root, WithHistory(3))
	for i := 0; i < 5; i++ {
		count.Set(i + 1)
		flush(t, root)
	}

	ticks := ins.Ticks(0)
	if len(ticks) != 3 {
		t.Fatalf("kept %d ticks, want 3", len(ticks))
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].Tick <= ticks[i-1].Tick {
			t.Errorf("ticks out of order: %d after %d", ticks[i].Tick, ticks[i-1].Tick)
		}
	}
	if _, ok := ins.Tick(ticks[0].Tick - 1); ok {
		t.Error("evicted tick should not be found")
	}
}

func TestSummarize(t *testing.T) {
	root, count := newCounterRoot(t)
	var report quill.TickReport
	root.Use(quill.HookFuncs{After: func(_ context.Context, r quill.TickReport) { report = r }})
	flush(t, root)

	s := Summarize(report)
	if s.Edits != 1 || s.Ops["Insert"] != 1 || s.Instances != 1 {
		t.Errorf("mount summary = %+v", s)
	}

	count.Set(5)
	flush(t, root)
	s = Summarize(report)
	if s.Edits != 1 || s.Ops["UpdateProps"] != 1 {
		t.Errorf("update summary = %+v", s)
	}
	if s.Evaluations == 0 || s.Passes == 0 {
		t.Errorf("update stats = %+v", s)
	}
	if len(s.Errors) != 0 {
		t.Errorf("unexpected errors %v", s.Errors)
	}
}

func TestWebSocketStream(t *testing.T) {
	defer goleak.VerifyNone(t)

	root, count := newCounterRoot(t)
	hub := NewHub()
	defer hub.Close()
	srv := httptest.NewServer(NewServer(NewInspector(root, WithHub(hub))))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if msg.Type != MessageHello {
		t.Fatalf("first message type = %q, want hello", msg.Type)
	}
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1", hub.ClientCount())
	}

	flush(t, root)
	count.Set(3)
	flush(t, root)

	var got []map[string]int
	for i := 0; i < 2; i++ {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read tick: %v", err)
		}
		if msg.Type != MessageTick || msg.Tick == nil {
			t.Fatalf("unexpected message %+v", msg)
		}
		got = append(got, msg.Tick.Ops)
	}
	want := []map[string]int{{"Insert": 1}, {"UpdateProps": 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("streamed ops (-want +got):\n%s", diff)
	}
}
