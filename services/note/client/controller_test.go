package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ghuser/notekeeper/pkg/logger"
	notedomain "github.com/ghuser/notekeeper/services/note/domain"
)

var strategies = []Strategy{StrategyPessimistic, StrategyOptimistic}

func newTestController(svc RecordService, opts ...Option) *Controller {
	return NewController(svc, logger.Discard(), opts...)
}

func fill(c *Controller, name, desc string) {
	c.SetField(FieldName, name)
	c.SetField(FieldDescription, desc)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyPessimistic, false},
		{"pessimistic", StrategyPessimistic, false},
		{"optimistic", StrategyOptimistic, false},
		{"eager", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseStrategy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewController_DefaultsToPessimistic(t *testing.T) {
	c := newTestController(newFakeRecordService())
	if c.Strategy() != StrategyPessimistic {
		t.Fatalf("expected pessimistic default, got %q", c.Strategy())
	}
}

func TestLoad_ReplacesRecords(t *testing.T) {
	svc := newFakeRecordService(
		Record{Name: "A", Description: "a"},
		Record{Name: "B", Description: "b"},
	)
	c := newTestController(svc)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := c.Records()
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Fatalf("expected [A B] in order, got %+v", got)
	}
}

func TestLoad_FailureKeepsRecords(t *testing.T) {
	svc := newFakeRecordService(Record{Name: "A", Description: "a"})
	c := newTestController(svc)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	svc.listErr = fmt.Errorf("%w: connection refused", ErrTransport)
	err := c.Load(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if got := c.Records(); len(got) != 1 || got[0].Name != "A" {
		t.Fatalf("expected records unchanged, got %+v", got)
	}
}

func TestLoad_ResolvesImagesAndToleratesFailures(t *testing.T) {
	svc := newFakeRecordService(
		Record{Name: "with image", Description: "d", ImageKey: "cat.png"},
		Record{Name: "missing image", Description: "d", ImageKey: "gone.png"},
		Record{Name: "broken store", Description: "d", ImageKey: "err.png"},
		Record{Name: "no image", Description: "d"},
	)
	assets := newFakeAssets()
	assets.objects["cat.png"] = []byte("meow")
	assets.objects["err.png"] = []byte("x")
	assets.resolveErr["err.png"] = errors.New("store unavailable")

	c := newTestController(svc, WithAssetStorage(assets))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load must not fail on image errors: %v", err)
	}

	got := c.Records()
	if len(got) != 4 {
		t.Fatalf("expected 4 records, got %d", len(got))
	}
	if got[0].ImageURL != "https://assets.test/cat.png" {
		t.Errorf("expected resolved URL, got %q", got[0].ImageURL)
	}
	for _, r := range got[1:] {
		if r.ImageURL != "" {
			t.Errorf("%s: expected empty ImageURL, got %q", r.Name, r.ImageURL)
		}
	}
	if got[1].ImageKey != "gone.png" {
		t.Errorf("unresolved record must keep its image key, got %q", got[1].ImageKey)
	}
}

func TestLoad_WithoutAssetStorageLeavesURLsEmpty(t *testing.T) {
	svc := newFakeRecordService(Record{Name: "A", Description: "a", ImageKey: "cat.png"})
	c := newTestController(svc)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url := c.Records()[0].ImageURL; url != "" {
		t.Fatalf("expected empty ImageURL, got %q", url)
	}
}

func TestSetField(t *testing.T) {
	c := newTestController(newFakeRecordService())
	c.SetField(FieldName, "n")
	c.SetField(FieldDescription, "d")
	c.SetField(FieldImageKey, "k.png")
	c.SetField(Field("colour"), "red")

	want := Record{Name: "n", Description: "d", ImageKey: "k.png"}
	if got := c.Draft(); got != want {
		t.Fatalf("draft = %+v, want %+v", got, want)
	}
}

func TestCreate_RequiresNameAndDescription(t *testing.T) {
	tests := []struct {
		name string
		n, d string
	}{
		{"empty name", "", "desc"},
		{"empty description", "name", ""},
		{"both empty", "", ""},
	}

	for _, strategy := range strategies {
		for _, tt := range tests {
			t.Run(string(strategy)+"/"+tt.name, func(t *testing.T) {
				svc := newFakeRecordService(Record{Name: "A", Description: "a"})
				c := newTestController(svc, WithStrategy(strategy))
				if err := c.Load(context.Background()); err != nil {
					t.Fatalf("load: %v", err)
				}
				before := c.Records()
				lists := svc.lists

				fill(c, tt.n, tt.d)
				if err := c.Create(context.Background()); err != nil {
					t.Fatalf("expected silent no-op, got %v", err)
				}

				if calls := svc.createCalls(); len(calls) != 0 {
					t.Fatalf("remote create must not be called, got %d calls", len(calls))
				}
				if svc.lists != lists {
					t.Fatalf("remote list must not be called")
				}
				after := c.Records()
				if len(after) != len(before) || after[0] != before[0] {
					t.Fatalf("records changed: before %+v after %+v", before, after)
				}
				if d := c.Draft(); d.Name != tt.n || d.Description != tt.d {
					t.Fatalf("draft must be kept on no-op, got %+v", d)
				}
			})
		}
	}
}

func TestCreate_SuccessAddsRecordAndResetsDraft(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			svc := newFakeRecordService()
			c := newTestController(svc, WithStrategy(strategy))

			fill(c, "Groceries", "milk, eggs")
			if err := c.Create(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := c.Records()
			if len(got) != 1 || got[0].Name != "Groceries" || got[0].Description != "milk, eggs" {
				t.Fatalf("expected the new record, got %+v", got)
			}
			if d := c.Draft(); d != (Record{}) {
				t.Fatalf("expected empty draft, got %+v", d)
			}
			calls := svc.createCalls()
			if len(calls) != 1 || calls[0] != (Fields{Name: "Groceries", Description: "milk, eggs"}) {
				t.Fatalf("unexpected create calls: %+v", calls)
			}
		})
	}
}

func TestCreate_PessimisticAssignsRemoteID(t *testing.T) {
	svc := newFakeRecordService()
	c := newTestController(svc)

	fill(c, "A", "B")
	if err := c.Create(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id := c.Records()[0].ID; id == "" {
		t.Fatal("pessimistic create must expose the server-assigned id after refresh")
	}
}

func TestCreate_PessimisticFailureLeavesStateUntouched(t *testing.T) {
	svc := newFakeRecordService(Record{Name: "A", Description: "a"})
	c := newTestController(svc, WithStrategy(StrategyPessimistic))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	svc.createErr = fmt.Errorf("%w: name rejected", notedomain.ErrInvalidNote)
	fill(c, "B", "b")
	err := c.Create(context.Background())
	if !errors.Is(err, notedomain.ErrInvalidNote) {
		t.Fatalf("expected ErrInvalidNote, got %v", err)
	}

	if got := c.Records(); len(got) != 1 || got[0].Name != "A" {
		t.Fatalf("records must be unchanged, got %+v", got)
	}
	if d := c.Draft(); d.Name != "B" || d.Description != "b" {
		t.Fatalf("draft must be kept for resubmission, got %+v", d)
	}
}

func TestCreate_OptimisticFailureKeepsEntryUntilLoad(t *testing.T) {
	svc := newFakeRecordService(Record{Name: "A", Description: "a"})
	c := newTestController(svc, WithStrategy(StrategyOptimistic))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	svc.createErr = fmt.Errorf("%w: timeout", ErrTransport)
	fill(c, "B", "b")
	err := c.Create(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}

	got := c.Records()
	if len(got) != 2 || got[1].Name != "B" || got[1].ID != "" {
		t.Fatalf("optimistic entry must remain without id, got %+v", got)
	}
	if d := c.Draft(); d != (Record{}) {
		t.Fatalf("draft is cleared before the remote call, got %+v", d)
	}

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("reconcile load: %v", err)
	}
	if got := c.Records(); len(got) != 1 || got[0].Name != "A" {
		t.Fatalf("load must reconcile the list, got %+v", got)
	}
}

func TestCreate_OptimisticAppendsBeforeRemoteCall(t *testing.T) {
	svc := &observingService{fakeRecordService: newFakeRecordService()}
	c := newTestController(svc, WithStrategy(StrategyOptimistic))
	svc.ctrl = c

	fill(c, "A", "B")
	if err := c.Create(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.seen) != 1 || svc.seen[0].Name != "A" {
		t.Fatalf("record must be visible during the remote call, saw %+v", svc.seen)
	}
}

// observingService captures the controller's list at the moment Create is called.
type observingService struct {
	*fakeRecordService
	ctrl *Controller
	seen []Record
}

func (s *observingService) Create(ctx context.Context, fields Fields) (Record, error) {
	s.seen = s.ctrl.Records()
	return s.fakeRecordService.Create(ctx, fields)
}

func TestUpdate_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Controller)
	}{
		{"not editing", func(c *Controller) {
			fill(c, "A", "a")
			c.SetField(FieldImageKey, "")
		}},
		{"editing without id", func(c *Controller) {
			c.BeginEdit(Record{Name: "A", Description: "a"})
		}},
		{"editing with empty name", func(c *Controller) {
			c.BeginEdit(Record{ID: "n1", Name: "A", Description: "a"})
			c.SetField(FieldName, "")
		}},
		{"editing with empty description", func(c *Controller) {
			c.BeginEdit(Record{ID: "n1", Name: "A", Description: "a"})
			c.SetField(FieldDescription, "")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeRecordService(Record{Name: "A", Description: "a"})
			c := newTestController(svc)
			tt.setup(c)

			if err := c.Update(context.Background()); err != nil {
				t.Fatalf("expected silent no-op, got %v", err)
			}
			if calls := svc.updateCalls(); len(calls) != 0 {
				t.Fatalf("remote update must not be called, got %+v", calls)
			}
		})
	}
}

func TestUpdate_SuccessLeavesEditModeAndRefreshes(t *testing.T) {
	svc := newFakeRecordService(Record{Name: "A", Description: "a"})
	c := newTestController(svc)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	c.BeginEdit(c.Records()[0])
	c.SetField(FieldName, "A2")
	if err := c.Update(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Editing() {
		t.Fatal("expected edit mode off")
	}
	if d := c.Draft(); d != (Record{}) {
		t.Fatalf("expected empty draft, got %+v", d)
	}
	if got := c.Records(); len(got) != 1 || got[0].Name != "A2" {
		t.Fatalf("expected refreshed list with A2, got %+v", got)
	}
}

func TestUpdate_FailureKeepsEditing(t *testing.T) {
	svc := newFakeRecordService(Record{Name: "A", Description: "a"})
	c := newTestController(svc)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	svc.updateErr = fmt.Errorf("%w: 503", ErrTransport)
	c.BeginEdit(c.Records()[0])
	c.SetField(FieldDescription, "changed")
	err := c.Update(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if !c.Editing() {
		t.Fatal("edit mode must stay on after a failed update")
	}
	if d := c.Draft(); d.Description != "changed" {
		t.Fatalf("draft must be kept, got %+v", d)
	}
	if got := c.Records(); got[0].Description != "a" {
		t.Fatalf("records must be unchanged, got %+v", got)
	}
}

func TestUpdate_DeletedRecordReportsNotFound(t *testing.T) {
	svc := newFakeRecordService()
	c := newTestController(svc)

	c.BeginEdit(Record{ID: "gone", Name: "A", Description: "a"})
	err := c.Update(context.Background())
	if !errors.Is(err, notedomain.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestBeginEditThenUpdate_SendsRecordUnchanged(t *testing.T) {
	r := Record{ID: "n1", Name: "A", Description: "a", ImageKey: "cat.png", ImageURL: "https://assets.test/cat.png"}
	svc := newFakeRecordService(Record{ID: "n1", Name: "A", Description: "a", ImageKey: "cat.png"})
	c := newTestController(svc)

	c.BeginEdit(r)
	if err := c.Update(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := svc.updateCalls()
	if len(calls) != 1 {
		t.Fatalf("expected one update call, got %d", len(calls))
	}
	if calls[0].id != r.ID || calls[0].fields != r.Fields() {
		t.Fatalf("update payload = %s %+v, want %s %+v", calls[0].id, calls[0].fields, r.ID, r.Fields())
	}
}

func TestBeginEdit_DiscardsUnsavedDraft(t *testing.T) {
	c := newTestController(newFakeRecordService())
	c.BeginEdit(Record{ID: "n1", Name: "A", Description: "a"})
	c.SetField(FieldName, "unsaved")

	c.BeginEdit(Record{ID: "n2", Name: "B", Description: "b"})
	if d := c.Draft(); d.ID != "n2" || d.Name != "B" {
		t.Fatalf("expected draft of n2, got %+v", d)
	}
	if !c.Editing() {
		t.Fatal("expected edit mode on")
	}
}

func TestRemove_SuccessDropsRecord(t *testing.T) {
	svc := newFakeRecordService(
		Record{ID: "n1", Name: "A", Description: "a"},
		Record{ID: "n2", Name: "B", Description: "b"},
	)
	c := newTestController(svc)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := c.Remove(context.Background(), "n1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range c.Records() {
		if r.ID == "n1" {
			t.Fatalf("removed record still listed: %+v", c.Records())
		}
	}
	if got := c.Records(); len(got) != 1 {
		t.Fatalf("expected 1 record, got %+v", got)
	}
}

func TestRemove_EmptyIDIsNoop(t *testing.T) {
	svc := newFakeRecordService()
	c := newTestController(svc)
	if err := c.Remove(context.Background(), ""); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if len(svc.deletes) != 0 {
		t.Fatalf("remote delete must not be called")
	}
}

func TestScenario_CreateIntoEmptyStoreThenLoad(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			svc := newFakeRecordService()
			c := newTestController(svc, WithStrategy(strategy))
			ctx := context.Background()

			if err := c.Load(ctx); err != nil {
				t.Fatalf("load: %v", err)
			}
			fill(c, "A", "B")
			if err := c.Create(ctx); err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := c.Load(ctx); err != nil {
				t.Fatalf("load: %v", err)
			}

			got := c.Records()
			if len(got) != 1 || got[0].Name != "A" || got[0].ID == "" {
				t.Fatalf("expected one stored record named A, got %+v", got)
			}
		})
	}
}

func TestScenario_RemoveMissingIDReportsNotFound(t *testing.T) {
	svc := newFakeRecordService(Record{ID: "n1", Name: "A", Description: "a"})
	c := newTestController(svc)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	err := c.Remove(context.Background(), "does-not-exist")
	if !errors.Is(err, notedomain.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
	if got := c.Records(); len(got) != 1 || got[0].ID != "n1" {
		t.Fatalf("records must be unchanged, got %+v", got)
	}
}

func TestScenario_LoadBeforeUploadCompletes(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			svc := newFakeRecordService()
			assets := newFakeAssets()
			assets.gate = make(chan struct{})
			c := newTestController(svc, WithStrategy(strategy), WithAssetStorage(assets))
			ctx := context.Background()

			fill(c, "Cat", "a cat picture")
			done, err := c.CreateWithAsset(ctx, Asset{
				Name: "/home/me/pics/cat.png",
				Body: strings.NewReader("png bytes"),
				Size: 9,
			})
			if err != nil {
				t.Fatalf("create must not wait for the upload: %v", err)
			}

			if err := c.Load(ctx); err != nil {
				t.Fatalf("load during upload: %v", err)
			}
			got := c.Records()
			if len(got) != 1 || got[0].ImageKey != "cat.png" || got[0].ImageURL != "" {
				t.Fatalf("expected record with key and no URL, got %+v", got)
			}

			close(assets.gate)
			if err := <-done; err != nil {
				t.Fatalf("upload: %v", err)
			}
			if _, open := <-done; open {
				t.Fatal("done channel must be closed after the result")
			}

			if err := c.Load(ctx); err != nil {
				t.Fatalf("load after upload: %v", err)
			}
			if url := c.Records()[0].ImageURL; url != "https://assets.test/cat.png" {
				t.Fatalf("expected resolved URL after upload, got %q", url)
			}
		})
	}
}

func TestCreateWithAsset_CreatesRecordWithDerivedKey(t *testing.T) {
	svc := newFakeRecordService()
	assets := newFakeAssets()
	c := newTestController(svc, WithAssetStorage(assets))

	fill(c, "A", "B")
	c.SetField(FieldImageKey, "stale.png")
	done, err := c.CreateWithAsset(context.Background(), Asset{Name: `C:\pics\dog.jpg`, Body: strings.NewReader("x"), Size: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("upload: %v", err)
	}

	calls := svc.createCalls()
	if len(calls) != 1 || calls[0].ImageKey != "dog.jpg" {
		t.Fatalf("expected create with image key dog.jpg, got %+v", calls)
	}
	if keys := assets.uploadedKeys(); len(keys) != 1 || keys[0] != "dog.jpg" {
		t.Fatalf("expected upload under dog.jpg, got %v", keys)
	}
}

func TestCreateWithAsset_UploadFailureIsReportedOnChannel(t *testing.T) {
	svc := newFakeRecordService()
	assets := newFakeAssets()
	assets.uploadErr = fmt.Errorf("%w: bucket offline", ErrTransport)
	c := newTestController(svc, WithAssetStorage(assets))

	fill(c, "A", "B")
	done, err := c.CreateWithAsset(context.Background(), Asset{Name: "a.png", Body: strings.NewReader("x"), Size: 1})
	if err != nil {
		t.Fatalf("record creation must succeed independently of upload: %v", err)
	}
	if err := <-done; !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport from upload, got %v", err)
	}
	if got := c.Records(); len(got) != 1 || got[0].ImageKey != "a.png" {
		t.Fatalf("record must exist with its image key, got %+v", got)
	}
}

func TestCreateWithAsset_NoUploadWhenCreateDoesNotHappen(t *testing.T) {
	tests := []struct {
		name      string
		n, d      string
		createErr error
		wantErr   error
	}{
		{"precondition no-op", "", "desc", nil, nil},
		{"remote create failed", "A", "B", fmt.Errorf("%w: down", ErrTransport), ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeRecordService()
			svc.createErr = tt.createErr
			assets := newFakeAssets()
			c := newTestController(svc, WithAssetStorage(assets))

			fill(c, tt.n, tt.d)
			done, err := c.CreateWithAsset(context.Background(), Asset{Name: "a.png", Body: strings.NewReader("x"), Size: 1})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if _, open := <-done; open {
				t.Fatal("channel must be closed without a value")
			}
			if keys := assets.uploadedKeys(); len(keys) != 0 {
				t.Fatalf("no upload expected, got %v", keys)
			}
		})
	}
}

func TestCreateWithAsset_Rejections(t *testing.T) {
	t.Run("no asset storage", func(t *testing.T) {
		c := newTestController(newFakeRecordService())
		fill(c, "A", "B")
		_, err := c.CreateWithAsset(context.Background(), Asset{Name: "a.png", Body: strings.NewReader("x")})
		if !errors.Is(err, ErrNoAssetStorage) {
			t.Fatalf("expected ErrNoAssetStorage, got %v", err)
		}
	})

	t.Run("unusable asset name", func(t *testing.T) {
		svc := newFakeRecordService()
		c := newTestController(svc, WithAssetStorage(newFakeAssets()))
		fill(c, "A", "B")
		_, err := c.CreateWithAsset(context.Background(), Asset{Name: "  ", Body: strings.NewReader("x")})
		if !errors.Is(err, ErrInvalidAsset) {
			t.Fatalf("expected ErrInvalidAsset, got %v", err)
		}
		if len(svc.createCalls()) != 0 {
			t.Fatal("remote create must not be called")
		}
	})
}

func TestAssetKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"cat.png", "cat.png"},
		{"/tmp/pics/cat.png", "cat.png"},
		{`C:\Users\me\dog.jpg`, "dog.jpg"},
		{"  spaced.gif  ", "spaced.gif"},
		{"", ""},
		{"/", ""},
		{"..", ""},
	}
	for _, tt := range tests {
		if got := AssetKey(tt.in); got != tt.want {
			t.Errorf("AssetKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestController_ConcurrentOperations(t *testing.T) {
	svc := newFakeRecordService()
	c := newTestController(svc, WithStrategy(StrategyOptimistic))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			fill(c, fmt.Sprintf("n%d", i), "d")
			_ = c.Create(ctx)
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Load(ctx)
		}()
	}
	wg.Wait()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("final load: %v", err)
	}
	if got, stored := len(c.Records()), len(svc.createCalls()); got != stored {
		t.Fatalf("final load must match the store: %d listed, %d created", got, stored)
	}
}
