package dashboard

import (
	"context"
	"net/http"
	"testing"

	"github.com/Veraticus/splitflow/internal/api"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/Veraticus/splitflow/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	listErr   error
	createErr error
	created   []api.NewGroup
	groups    []model.Group
	lists     int
}

func (f *fakeBackend) ListGroups(context.Context) ([]model.Group, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Group{}, f.groups...), nil
}

func (f *fakeBackend) CreateGroup(_ context.Context, in api.NewGroup) (model.Group, error) {
	if f.createErr != nil {
		return model.Group{}, f.createErr
	}
	f.created = append(f.created, in)
	g := model.Group{ID: "G" + string(rune('0'+len(f.groups)+1)), Name: in.Name, Category: in.Category}
	f.groups = append(f.groups, g)
	return g, nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(string) error {
	c.calls++
	return nil
}

func TestDirectory_Refresh(t *testing.T) {
	backend := &fakeBackend{groups: []model.Group{{ID: "G1", Name: "Trip"}}}
	rec := &notify.Recorder{}
	d := New(backend, WithNotifier(rec))
	assert.Equal(t, StatusLoading, d.View().Status)

	require.NoError(t, d.Refresh(context.Background()))

	v := d.View()
	assert.Equal(t, StatusReady, v.Status)
	require.Len(t, v.Groups, 1)
	assert.Equal(t, "Trip", v.Groups[0].Name)
	assert.Empty(t, rec.Messages())
}

func TestDirectory_RefreshFailureKeepsList(t *testing.T) {
	backend := &fakeBackend{groups: []model.Group{{ID: "G1", Name: "Trip"}}}
	rec := &notify.Recorder{}
	inv := &countingInvalidator{}
	d := New(backend, WithNotifier(rec), WithInvalidator(inv))
	require.NoError(t, d.Refresh(context.Background()))

	backend.listErr = &api.Error{Kind: api.KindAuth, Status: http.StatusUnauthorized}
	require.Error(t, d.Refresh(context.Background()))

	v := d.View()
	assert.Equal(t, StatusError, v.Status)
	assert.Len(t, v.Groups, 1)
	assert.Equal(t, []string{MsgLoadFailed}, rec.Messages())
	assert.Equal(t, 1, inv.calls)
}

func TestDirectory_Create(t *testing.T) {
	backend := &fakeBackend{}
	rec := &notify.Recorder{}
	d := New(backend, WithNotifier(rec))
	require.NoError(t, d.Refresh(context.Background()))

	group, err := d.Create(context.Background(), GroupForm{Name: " Flat ", Category: model.GroupCategoryHousehold})
	require.NoError(t, err)

	assert.Equal(t, "Flat", group.Name)
	assert.Equal(t, []api.NewGroup{{Name: "Flat", Category: model.GroupCategoryHousehold}}, backend.created)
	assert.Equal(t, 2, backend.lists)
	assert.Len(t, d.View().Groups, 1)
	assert.Equal(t, []string{MsgCreated}, rec.Messages())
}

func TestDirectory_CreateSucceedsWhenReloadFails(t *testing.T) {
	backend := &fakeBackend{}
	rec := &notify.Recorder{}
	d := New(backend, WithNotifier(rec))
	require.NoError(t, d.Refresh(context.Background()))
	backend.listErr = &api.Error{Kind: api.KindNetwork}

	group, err := d.Create(context.Background(), GroupForm{Name: "Flat", Category: model.GroupCategoryHousehold})

	require.NoError(t, err)
	assert.Equal(t, "Flat", group.Name)
	assert.Len(t, backend.created, 1)
	assert.Equal(t, StatusError, d.View().Status)
	assert.Equal(t, []string{MsgCreated, MsgLoadFailed}, rec.Messages())
}

func TestDirectory_CreateFailures(t *testing.T) {
	tests := []struct {
		createErr error
		name      string
		wantMsg   string
		form      GroupForm
		wantSent  bool
	}{
		{name: "missing name", form: GroupForm{Category: "trip"}, wantMsg: "Name is required"},
		{name: "bad category", form: GroupForm{Name: "x", Category: "party"}, wantMsg: "Category must be one of: trip, household, event, other"},
		{name: "server failure", form: GroupForm{Name: "x"}, createErr: &api.Error{Kind: api.KindServer, Status: http.StatusInternalServerError}, wantMsg: MsgCreateFailed},
		{name: "server message", form: GroupForm{Name: "x"}, createErr: &api.Error{Kind: api.KindValidation, Status: http.StatusBadRequest, Message: "Name taken"}, wantMsg: "Name taken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{createErr: tt.createErr}
			rec := &notify.Recorder{}
			d := New(backend, WithNotifier(rec))

			_, err := d.Create(context.Background(), tt.form)

			require.Error(t, err)
			assert.Empty(t, backend.created)
			assert.Equal(t, 0, backend.lists)
			assert.Equal(t, []string{tt.wantMsg}, rec.Messages())
		})
	}
}

func TestDirectory_Close(t *testing.T) {
	d := New(&fakeBackend{})
	d.Close()

	assert.ErrorIs(t, d.Refresh(context.Background()), ErrClosed)
	_, err := d.Create(context.Background(), GroupForm{Name: "x"})
	assert.ErrorIs(t, err, ErrClosed)
}
