package template

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func registryTemplate(ct ContentType) *Template {
	return &Template{
		ID:          "t-" + string(ct),
		ContentType: ct,
		BaseImage:   "base.png",
		Width:       100,
		Height:      100,
		Elements: []Element{
			{FieldName: "title", Kind: KindText, BBox: BBox{W: 80, H: 20}, Visible: true},
		},
	}
}

func TestRegistryLookup(t *testing.T) {
	reg, err := NewRegistry(registryTemplate(ContentMatchday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := reg.ActiveTemplate(context.Background(), ContentMatchday)
	if !ok || got.ID != "t-matchday" {
		t.Fatalf("lookup failed: ok=%v got=%+v", ok, got)
	}
	if _, ok := reg.ActiveTemplate(context.Background(), ContentResult); ok {
		t.Fatalf("expected miss for unregistered content type")
	}
	hits, misses := reg.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("stats mismatch: hits=%d misses=%d", hits, misses)
	}
}

func TestRegistryReloadSwapsWholeSet(t *testing.T) {
	reg, err := NewRegistry(registryTemplate(ContentMatchday))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.Reload([]*Template{registryTemplate(ContentResult)}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := reg.ActiveTemplate(context.Background(), ContentMatchday); ok {
		t.Fatalf("old template survived reload")
	}
	if _, ok := reg.ActiveTemplate(context.Background(), ContentResult); !ok {
		t.Fatalf("new template missing after reload")
	}
}

func TestRegistryReloadRejectsInvalidTemplate(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := registryTemplate(ContentResult)
	bad.Width = 0
	if err := reg.Reload([]*Template{bad}); err == nil {
		t.Fatalf("expected validation error")
	}
	if reg.Len() != 0 {
		t.Fatalf("failed reload must not change the set")
	}
}

func TestRegistryPutAndRemove(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.Put(registryTemplate(ContentGoal)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := reg.ActiveTemplate(context.Background(), ContentGoal); !ok {
		t.Fatalf("put template not found")
	}
	reg.Remove(ContentGoal)
	if _, ok := reg.ActiveTemplate(context.Background(), ContentGoal); ok {
		t.Fatalf("removed template still found")
	}
}

// Parallel reads with interleaved reloads must neither race nor observe
// a partially swapped set.
func TestRegistryConcurrentReadsDuringReload(t *testing.T) {
	reg, err := NewRegistry(registryTemplate(ContentMatchday), registryTemplate(ContentResult))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if tpl, ok := reg.ActiveTemplate(context.Background(), ContentMatchday); ok && tpl.ID == "" {
					t.Errorf("observed corrupt template")
					return
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				set := []*Template{registryTemplate(ContentMatchday), registryTemplate(ContentResult)}
				set[0].ID = fmt.Sprintf("gen-%d-%d", n, j)
				if err := reg.Reload(set); err != nil {
					t.Errorf("reload: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
