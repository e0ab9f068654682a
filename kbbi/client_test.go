package kbbi

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multiSensePage = `<html><body>
<h2>rumah</h2>
<ol>
  <li>bangunan untuk tempat tinggal</li>
  <li>bangunan pada umumnya   (seperti gedung)</li>
</ol>
</body></html>`

const singleSensePage = `<html><body>
<h2>galau</h2>
<ul class="adjusted-par">
  <li>sibuk beramai-ramai; ramai sekali</li>
</ul>
</body></html>`

func TestLookupFormatsMultipleSenses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entri/rumah", r.URL.Path)
		w.Write([]byte(multiSensePage))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	got, err := client.Lookup(context.Background(), "rumah")

	require.NoError(t, err)
	assert.Equal(t, "1. bangunan untuk tempat tinggal\n2. bangunan pada umumnya (seperti gedung)", got)
}

func TestLookupSingleSenseHasNoNumbering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(singleSensePage))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	got, err := client.Lookup(context.Background(), "galau")

	require.NoError(t, err)
	assert.Equal(t, "sibuk beramai-ramai; ramai sekali", got)
}

func TestLookupEscapesAndTrimsTheWord(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		w.Write([]byte(singleSensePage))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	_, err := client.Lookup(context.Background(), "  kata/majemuk ")

	require.NoError(t, err)
	assert.Equal(t, "/entri/kata%2Fmajemuk", path)
}

func TestLookupNotFound(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"http 404": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
		"marker in page": func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`<html><body><h4>Entri tidak ditemukan.</h4></body></html>`))
		},
		"no definition items": func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`<html><body><p>halaman kosong</p></body></html>`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, srv.Client()).Lookup(context.Background(), "asdfgh")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestLookupDailyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><p>Anda telah mencapai batas pencarian. Batas Sehari.</p></body></html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client()).Lookup(context.Background(), "kata")
	assert.ErrorIs(t, err, ErrDailyLimit)
}

func TestLoginSubmitsVerificationTokenAndCredentials(t *testing.T) {
	var form map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Account/Login", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><form><input name="__RequestVerificationToken" value="tok-123"></form></body></html>`))
	})
	mux.HandleFunc("POST /Account/Login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"token":     r.PostFormValue("__RequestVerificationToken"),
			"posel":     r.PostFormValue("Posel"),
			"katasandi": r.PostFormValue("KataSandi"),
		}
		w.Write([]byte(`<html><body>Beranda</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	httpClient := srv.Client()
	httpClient.Jar = jar

	client := NewClient(srv.URL, httpClient)
	require.NoError(t, client.Login(context.Background(), "eko@example.com", "rahasia"))

	assert.Equal(t, "tok-123", form["token"])
	assert.Equal(t, "eko@example.com", form["posel"])
	assert.Equal(t, "rahasia", form["katasandi"])
}

func TestLoginRejectedCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Account/Login", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><form><input name="__RequestVerificationToken" value="tok-123"></form></body></html>`))
	})
	mux.HandleFunc("POST /Account/Login", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><div class="validation-summary-errors">Posel atau kata sandi salah.</div></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	err := NewClient(srv.URL, srv.Client()).Login(context.Background(), "eko@example.com", "salah")
	assert.ErrorContains(t, err, "login rejected")
}

func TestGatewayCollapsesFailuresToNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gateway := NewGateway(NewClient(srv.URL, srv.Client()))
	res := gateway.Define(context.Background(), "kata")

	assert.False(t, res.Found)
	assert.Empty(t, res.Text)
}

func TestGatewayReturnsDefinition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(singleSensePage))
	}))
	defer srv.Close()

	gateway := NewGateway(NewClient(srv.URL, srv.Client()))
	res := gateway.Define(context.Background(), "galau")

	assert.True(t, res.Found)
	assert.Equal(t, "sibuk beramai-ramai; ramai sekali", res.Text)
}
