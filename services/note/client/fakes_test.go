package client

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	notedomain "github.com/ghuser/notekeeper/services/note/domain"
)

type updateCall struct {
	id     string
	fields Fields
}

// fakeRecordService is an in-memory RecordService with injectable failures.
type fakeRecordService struct {
	mu     sync.Mutex
	notes  []Record
	nextID int

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	lists   int
	creates []Fields
	updates []updateCall
	deletes []string
}

func newFakeRecordService(seed ...Record) *fakeRecordService {
	f := &fakeRecordService{}
	for _, r := range seed {
		if r.ID == "" {
			f.nextID++
			r.ID = "n" + strconv.Itoa(f.nextID)
		}
		f.notes = append(f.notes, r)
	}
	return f
}

func (f *fakeRecordService) List(_ context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Record, len(f.notes))
	copy(out, f.notes)
	return out, nil
}

func (f *fakeRecordService) Create(_ context.Context, fields Fields) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, fields)
	if f.createErr != nil {
		return Record{}, f.createErr
	}
	f.nextID++
	r := Record{
		ID:          "n" + strconv.Itoa(f.nextID),
		Name:        fields.Name,
		Description: fields.Description,
		ImageKey:    fields.ImageKey,
	}
	f.notes = append(f.notes, r)
	return r, nil
}

func (f *fakeRecordService) Update(_ context.Context, id string, fields Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{id: id, fields: fields})
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.notes {
		if f.notes[i].ID == id {
			f.notes[i].Name = fields.Name
			f.notes[i].Description = fields.Description
			f.notes[i].ImageKey = fields.ImageKey
			return nil
		}
	}
	return fmt.Errorf("update %s: %w", id, notedomain.ErrNoteNotFound)
}

func (f *fakeRecordService) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.notes {
		if f.notes[i].ID == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete %s: %w", id, notedomain.ErrNoteNotFound)
}

func (f *fakeRecordService) createCalls() []Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Fields(nil), f.creates...)
}

func (f *fakeRecordService) updateCalls() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]updateCall(nil), f.updates...)
}

// fakeAssets is an in-memory AssetStorage. When gate is non-nil, Upload
// blocks until it is closed so tests can observe an in-flight upload.
type fakeAssets struct {
	mu         sync.Mutex
	objects    map[string][]byte
	resolveErr map[string]error
	uploadErr  error
	gate       chan struct{}
	uploads    []string
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{objects: map[string][]byte{}, resolveErr: map[string]error{}}
}

func (a *fakeAssets) ResolveURL(_ context.Context, key string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.resolveErr[key]; err != nil {
		return "", err
	}
	if _, ok := a.objects[key]; !ok {
		return "", fmt.Errorf("resolve %s: %w", key, notedomain.ErrAssetNotFound)
	}
	return "https://assets.test/" + key, nil
}

func (a *fakeAssets) Upload(_ context.Context, key string, body io.Reader, _ int64) error {
	if a.gate != nil {
		<-a.gate
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploads = append(a.uploads, key)
	if a.uploadErr != nil {
		return a.uploadErr
	}
	a.objects[key] = data
	return nil
}

func (a *fakeAssets) uploadedKeys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.uploads...)
}
