package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	i := NoopItemHooks{}
	i.OnItemAdded(ctx, "node", "node-1")
	i.OnItemUpdated(ctx, "node", "node-1")
	i.OnItemRemoved(ctx, "node", "node-1", 2)

	s := NoopSyncHooks{}
	s.OnSyncStart(ctx, 3)
	s.OnSyncComplete(ctx, 3, time.Millisecond, nil)
	s.OnLayoutStart(ctx, "graphviz", 10)
	s.OnLayoutComplete(ctx, "graphviz", time.Second, nil)

	st := NoopStoreHooks{}
	st.OnStoreHit(ctx, "file")
	st.OnStoreMiss(ctx, "redis")
	st.OnStoreSet(ctx, "mongo", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/diagrams")
	h.OnResponse(ctx, "POST", "/diagrams", 201, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Item().(NoopItemHooks); !ok {
		t.Error("Item() should return NoopItemHooks by default")
	}
	if _, ok := Sync().(NoopSyncHooks); !ok {
		t.Error("Sync() should return NoopSyncHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customItem := &testItemHooks{}
	SetItemHooks(customItem)
	if Item() != customItem {
		t.Error("SetItemHooks should set custom hooks")
	}

	customSync := &testSyncHooks{}
	SetSyncHooks(customSync)
	if Sync() != customSync {
		t.Error("SetSyncHooks should set custom hooks")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Sync().(NoopSyncHooks); !ok {
		t.Error("Reset() should restore NoopSyncHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testItemHooks{}
	SetItemHooks(custom)
	SetItemHooks(nil)

	if Item() != custom {
		t.Error("SetItemHooks(nil) should be ignored")
	}
}

type testItemHooks struct{ NoopItemHooks }
type testSyncHooks struct{ NoopSyncHooks }
type testStoreHooks struct{ NoopStoreHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
