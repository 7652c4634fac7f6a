package httpadapter_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/PabloGalante/docshelf/internal/adapters/http"
	"github.com/PabloGalante/docshelf/internal/adapters/storage/memory"
	"github.com/PabloGalante/docshelf/internal/app/items"
	"github.com/PabloGalante/docshelf/internal/app/registry"
	"github.com/PabloGalante/docshelf/internal/domain"
)

type testEnv struct {
	store  *memory.Store
	srv    *httptest.Server
	client *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	handler := httpadapter.NewServer(
		registry.NewService(store),
		items.NewGateway(store),
		store,
		[]byte("test-secret-key-0123456789abcdef"),
	)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		store:  store,
		srv:    srv,
		client: &http.Client{Jar: jar},
	}
}

// post submits a form and follows the redirect back to the page.
func (e *testEnv) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := e.client.PostForm(e.srv.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (e *testEnv) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := e.client.Get(e.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (e *testEnv) itemIDs(t *testing.T, collection string) []domain.ItemID {
	t.Helper()
	var ids []domain.ItemID
	for item, err := range e.store.FindItems(context.Background(), collection) {
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}
	return ids
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"ok"`)

	env.store.SetUnavailable(true)
	code, _ = env.get(t, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestEmptyIndex(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.get(t, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "No collections yet")
}

func TestCreateCollectionAddAndDeleteItem(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.post(t, "/create_collection", url.Values{"collection_name": {"tasks"}})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Collection &#34;tasks&#34; created.")
	assert.Contains(t, body, `Items in "tasks"`)

	_, body = env.post(t, "/add", url.Values{"name": {"Buy milk"}, "description": {"2%"}})
	assert.Contains(t, body, "Item added successfully!")
	assert.Contains(t, body, "Buy milk")
	assert.Contains(t, body, "2%")

	ids := env.itemIDs(t, "tasks")
	require.Len(t, ids, 1)

	_, body = env.post(t, "/delete", url.Values{"delete_id": {string(ids[0])}})
	assert.Contains(t, body, "Item deleted successfully!")
	assert.NotContains(t, body, "Buy milk")

	_, body = env.post(t, "/delete", url.Values{"delete_id": {string(ids[0])}})
	assert.Contains(t, body, "No item found with that ID.")
}

func TestItemValidationMessages(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.post(t, "/add", url.Values{"name": {"orphan"}})
	assert.Contains(t, body, "No collection selected")

	env.post(t, "/create_collection", url.Values{"collection_name": {"tasks"}})

	_, body = env.post(t, "/add", url.Values{"name": {""}})
	assert.Contains(t, body, "Name is required to add an item.")

	_, body = env.post(t, "/delete", url.Values{})
	assert.Contains(t, body, "Item ID is required for deletion.")

	_, body = env.post(t, "/delete", url.Values{"delete_id": {"garbage"}})
	assert.Contains(t, body, "is not a valid item ID")
}

func TestSwitchCollection(t *testing.T) {
	env := newTestEnv(t)

	env.post(t, "/create_collection", url.Values{"collection_name": {"archive"}})
	env.post(t, "/create_collection", url.Values{"collection_name": {"tasks"}})

	_, body := env.post(t, "/", url.Values{"collection": {"archive"}})
	assert.Contains(t, body, "Switched to collection &#34;archive&#34;.")
	assert.Contains(t, body, `Items in "archive"`)

	_, body = env.post(t, "/", url.Values{"collection": {"nonexistent"}})
	assert.Contains(t, body, "Collection &#34;nonexistent&#34; does not exist.")
	assert.Contains(t, body, `Items in "archive"`, "selection unchanged")
}

func TestDeleteCurrentCollectionFallsBack(t *testing.T) {
	env := newTestEnv(t)

	env.post(t, "/create_collection", url.Values{"collection_name": {"archive"}})
	env.post(t, "/create_collection", url.Values{"collection_name": {"tasks"}})

	_, body := env.post(t, "/delete_collection", url.Values{"collection_name": {"tasks"}})
	assert.Contains(t, body, "Collection &#34;tasks&#34; deleted.")
	assert.Contains(t, body, `Items in "archive"`)

	_, body = env.post(t, "/delete_collection", url.Values{"collection_name": {"tasks"}})
	assert.Contains(t, body, "Collection &#34;tasks&#34; does not exist.")

	_, body = env.post(t, "/delete_collection", url.Values{"collection_name": {"archive"}})
	assert.Contains(t, body, "No collections yet")
}

func TestDuplicateAndBlankCollection(t *testing.T) {
	env := newTestEnv(t)

	env.post(t, "/create_collection", url.Values{"collection_name": {"tasks"}})

	_, body := env.post(t, "/create_collection", url.Values{"collection_name": {"tasks"}})
	assert.Contains(t, body, "Collection &#34;tasks&#34; already exists.")

	_, body = env.post(t, "/create_collection", url.Values{"collection_name": {"  tasks "}})
	assert.Contains(t, body, "Collection &#34;tasks&#34; already exists.")
	assert.NotContains(t, body, "&#34;  tasks &#34;")

	_, body = env.post(t, "/create_collection", url.Values{"collection_name": {"  "}})
	assert.Contains(t, body, "Collection name is required.")
}

func TestIndexWhenStoreUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.store.SetUnavailable(true)

	code, body := env.get(t, "/")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "The database is unavailable")
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.get(t, "/add")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")

	resp, err := env.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))

	resp, err = env.client.Get(env.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
