package dlsite

import (
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/NobeKanai/dvtag/internal/http"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readPage(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/work.html")
	require.NoError(t, err)
	return string(data)
}

func TestWorkNo(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"RJ123456", "RJ123456", true},
		{"[サークル] rj123456 タイトル", "RJ123456", true},
		{"RJ01234567_title", "RJ01234567", true},
		{"RJ1234567", "RJ123456", true},
		{"RJ12345", "", false},
		{"no id here", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WorkNo(tt.name)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("WorkNo(%q) = %q, %v, want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseWorkPage(t *testing.T) {
	rel, err := ParseWorkPage("RJ123456", readPage(t))
	if err != nil {
		t.Fatalf("ParseWorkPage failed: %v", err)
	}

	if rel.ID != "RJ123456" {
		t.Errorf("ID = %q, want %q", rel.ID, "RJ123456")
	}
	if want := "【耳かき】耳かき&添い寝【バイノーラル】"; rel.Name != want {
		t.Errorf("Name = %q, want %q", rel.Name, want)
	}
	if rel.Circle != "サークル&ラボ" {
		t.Errorf("Circle = %q, want %q", rel.Circle, "サークル&ラボ")
	}
	if want := "https://img.dlsite.jp/modpub/images2/work/doujin/RJ124000/RJ123456_img_main.jpg"; rel.ImageURL != want {
		t.Errorf("ImageURL = %q, want %q", rel.ImageURL, want)
	}
	if rel.SaleDate != "2021-03-05" {
		t.Errorf("SaleDate = %q, want %q", rel.SaleDate, "2021-03-05")
	}
	assert.Equal(t, []string{"声優A", "声優&B"}, rel.Seiyus)
	assert.Equal(t, []string{"ASMR", "バイノーラル/ダミヘ"}, rel.Genres)
}

func TestParseWorkPage_MissingFields(t *testing.T) {
	page := readPage(t)

	tests := []struct {
		name   string
		remove string
		field  string
	}{
		{"no name", "data-product-name", "work name"},
		{"no image", `"og:image"`, "cover image url"},
		{"no date", "/new/=/year/", "sale date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWorkPage("RJ123456", strings.ReplaceAll(page, tt.remove, "removed"))

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if perr.Field != tt.field {
				t.Errorf("Field = %q, want %q", perr.Field, tt.field)
			}
		})
	}
}

func TestParseWorkPage_OptionalFields(t *testing.T) {
	page := readPage(t)
	page = strings.ReplaceAll(page, "<th>声優</th>", "<th>作者</th>")
	page = strings.ReplaceAll(page, "work.genre", "work.other")

	rel, err := ParseWorkPage("RJ123456", page)
	require.NoError(t, err)
	assert.Empty(t, rel.Seiyus)
	assert.Empty(t, rel.Genres)
}

const chobitBody = `callback({"count":1,"works":[{"work_id":"RJ123456","work_name":"耳かき&添い寝","file_type":"audio","thumb":"https://media.dlsite.com/chobit/contents/0001/abc/thumb.jpg"}]})`

type server struct {
	*httptest.Server
	page       string
	chobit     string
	chobitCode int
}

func newServer(t *testing.T, page, chobit string) *server {
	t.Helper()

	s := &server{page: page, chobit: chobit, chobitCode: nethttp.StatusOK}
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/work/RJ123456.html", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(s.page))
	})
	mux.HandleFunc("/chobit/RJ123456", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(s.chobitCode)
		_, _ = w.Write([]byte(s.chobit))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *server) fetcher() *Fetcher {
	cfg := http.DefaultConfig()
	cfg.MaxRetries = 1
	cfg.RetryCooldown = time.Millisecond
	cfg.RetryWaitMax = time.Millisecond
	cfg.RequestsPerSecond = 0

	return NewFetcher(http.NewClient(cfg, zerolog.Nop()),
		WithWorkURL(s.URL+"/work/%s.html"),
		WithChobitURL(s.URL+"/chobit/%s"),
	)
}

func TestFetcher_Fetch(t *testing.T) {
	s := newServer(t, readPage(t), chobitBody)

	rel, err := s.fetcher().Fetch(context.Background(), "RJ123456")
	require.NoError(t, err)

	assert.Equal(t, "耳かき&添い寝", rel.Name)
	assert.Equal(t, "https://file.chobit.cc/contents/0001/abc/thumb.jpg", rel.ImageURL)
	assert.Equal(t, "サークル&ラボ", rel.Circle)
	assert.Equal(t, "2021-03-05", rel.SaleDate)
}

func TestFetcher_ChobitNotAudio(t *testing.T) {
	s := newServer(t, readPage(t), strings.Replace(chobitBody, `"audio"`, `"video"`, 1))

	rel, err := s.fetcher().Fetch(context.Background(), "RJ123456")
	require.NoError(t, err)

	assert.Equal(t, "【耳かき】耳かき&添い寝【バイノーラル】", rel.Name)
	assert.Contains(t, rel.ImageURL, "img.dlsite.jp")
}

func TestFetcher_ChobitNameNotContained(t *testing.T) {
	s := newServer(t, readPage(t), strings.Replace(chobitBody, "耳かき&添い寝", "別の作品", 1))

	rel, err := s.fetcher().Fetch(context.Background(), "RJ123456")
	require.NoError(t, err)

	assert.Equal(t, "【耳かき】耳かき&添い寝【バイノーラル】", rel.Name)
	assert.Equal(t, "https://file.chobit.cc/contents/0001/abc/thumb.jpg", rel.ImageURL)
}

func TestFetcher_ChobitEmpty(t *testing.T) {
	s := newServer(t, readPage(t), `callback({"count":0,"works":[]})`)

	rel, err := s.fetcher().Fetch(context.Background(), "RJ123456")
	require.NoError(t, err)
	assert.Equal(t, "【耳かき】耳かき&添い寝【バイノーラル】", rel.Name)
}

func TestFetcher_ChobitMalformed(t *testing.T) {
	s := newServer(t, readPage(t), `callback({"count":`)

	_, err := s.fetcher().Fetch(context.Background(), "RJ123456")

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "chobit", perr.Field)
}

func TestFetcher_ChobitUnavailable(t *testing.T) {
	s := newServer(t, readPage(t), "")
	s.chobitCode = nethttp.StatusForbidden

	rel, err := s.fetcher().Fetch(context.Background(), "RJ123456")
	require.NoError(t, err)
	assert.Equal(t, "【耳かき】耳かき&添い寝【バイノーラル】", rel.Name)
}

func TestFetcher_NotFound(t *testing.T) {
	s := newServer(t, readPage(t), chobitBody)

	_, err := s.fetcher().Fetch(context.Background(), "RJ999999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFetcher_ParseError(t *testing.T) {
	s := newServer(t, "<html></html>", chobitBody)

	_, err := s.fetcher().Fetch(context.Background(), "RJ123456")

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "RJ123456", perr.WorkNo)
	assert.Equal(t, "RJ123456: no work name found", perr.Error())
}

func TestFetcher_FetchCover(t *testing.T) {
	s := newServer(t, readPage(t), chobitBody)
	f := s.fetcher()

	rel, err := f.Fetch(context.Background(), "RJ123456")
	require.NoError(t, err)
	rel.ImageURL = s.URL + "/work/RJ123456.html"

	data, err := f.FetchCover(context.Background(), rel)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	rel.ImageURL = ""
	_, err = f.FetchCover(context.Background(), rel)
	require.Error(t, err)
}
