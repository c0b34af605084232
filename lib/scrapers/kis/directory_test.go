package kis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"raspbot-backend/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newListServer(t testing.TB, hits *atomic.Int32) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		require.Equal(t, string(EntityGroup), r.URL.Query().Get("type"))
		// the portal mislabels its json, the client must not care
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(`["ИС1-231-ОТ","ИС1-232-ОТ","ЛД2-221-ОБ"]`))
	})
	return httptest.NewServer(mux)
}

func TestSearchEntities(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/kis")
	defer cleanup()

	server := newListServer(t, nil)
	defer server.Close()
	client := newTestClient(t, server)

	matches, err := client.SearchEntities(context.Background(), "231", EntityGroup)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff([]string{"ИС1-231-ОТ"}, matches))

	matches, err = client.SearchEntities(context.Background(), "ис1", EntityGroup)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff([]string{"ИС1-231-ОТ", "ИС1-232-ОТ"}, matches))

	matches, err = client.SearchEntities(context.Background(), "нет такой", EntityGroup)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestSearchEntitiesCachesDirectory(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/kis")
	defer cleanup()

	var hits atomic.Int32
	server := newListServer(t, &hits)
	defer server.Close()
	client := newTestClient(t, server)

	for i := 0; i < 3; i++ {
		_, err := client.SearchEntities(context.Background(), "231", EntityGroup)
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), hits.Load())
}

func TestSuggestEntities(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/kis")
	defer cleanup()

	server := newListServer(t, nil)
	defer server.Close()
	client := newTestClient(t, server)

	suggestions, err := client.SuggestEntities(context.Background(), "ис1-231-от", EntityGroup, 2)
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	require.Equal(t, "ИС1-231-ОТ", suggestions[0])
	require.LessOrEqual(t, len(suggestions), 2)
}

func TestFetchEntityListRejectsNonJson(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/kis")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>это не список</html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newTestClient(t, server)

	_, err := client.SearchEntities(context.Background(), "231", EntityGroup)
	require.ErrorIs(t, err, ErrOriginFormat)
}
