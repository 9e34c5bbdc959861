package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridclock/internal/model"
)

func TestFetchAll_Empty(t *testing.T) {
	f := NewFetcher()

	results, errs := f.FetchAll(context.Background(), nil)

	assert.Empty(t, results)
	assert.Empty(t, errs)
}

func TestFetchOne_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		w.Write([]byte("BEGIN:VCALENDAR"))
	}))
	defer srv.Close()

	f := NewFetcher()
	res, err := f.FetchOne(context.Background(), Source{Series: model.SeriesF1, URL: srv.URL})

	require.NoError(t, err)
	assert.Equal(t, model.SeriesF1, res.Source.Series)
	assert.Equal(t, []byte("BEGIN:VCALENDAR"), res.Body)
}

func TestFetchOne_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher()
	_, err := f.FetchOne(context.Background(), Source{Series: model.SeriesF1, URL: srv.URL})

	assert.Error(t, err)
}

func TestFetchOne_EmptyURL(t *testing.T) {
	f := NewFetcher()
	_, err := f.FetchOne(context.Background(), Source{Series: model.SeriesF1})
	assert.Error(t, err)
}

func TestFetchAll_PartialFailure(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	f := NewFetcher()
	results, errs := f.FetchAll(context.Background(), []Source{
		{Series: model.SeriesF1, URL: good.URL},
		{Series: model.SeriesF2, URL: bad.URL},
	})

	require.Len(t, results, 1)
	assert.Equal(t, model.SeriesF1, results[0].Source.Series)
	require.Len(t, errs, 1)
	assert.Equal(t, model.SeriesF2, errs[0].Series)
	assert.Equal(t, "fetch", errs[0].Stage)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/sub/secret-token.ics"))
	assert.Equal(t, "feed://...(redacted)", redactURL("not a url"))
}
