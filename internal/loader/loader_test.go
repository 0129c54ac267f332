package loader_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/smoothiebar/internal/loader"
	"github.com/okian/smoothiebar/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        string
}

// fakeAPI serves a fixed list and answers macro requests from a callback.
type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest

	listStatus int
	listBody   string
	macros     func(ingredients []string) (int, string)
	delay      time.Duration
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        string(body),
	})
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return
		}
	}

	switch r.URL.Path {
	case loader.PathSmoothies:
		status := f.listStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, f.listBody)
	case loader.PathCalculateMacros:
		var req struct {
			Ingredients []string `json:"ingredients"`
		}
		_ = json.Unmarshal(body, &req)
		status, out := http.StatusOK, `{"calories":0}`
		if f.macros != nil {
			status, out = f.macros(req.Ingredients)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, out)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeAPI) macroRequests() int {
	n := 0
	for _, r := range f.recorded() {
		if r.Path == loader.PathCalculateMacros {
			n++
		}
	}
	return n
}

func newLoader(srv *httptest.Server, opts ...loader.Option) *loader.Loader {
	opts = append([]loader.Option{loader.WithBaseURL(srv.URL)}, opts...)
	return loader.New(srv.Client(), opts...)
}

func toJSONValue(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func parseJSON(t *testing.T, s string) any {
	t.Helper()
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestLoad(t *testing.T) {
	Convey("Given an API with three smoothies", t, func() {
		api := &fakeAPI{
			listBody: `[
				{"title": "A", "ingredients": ["1 banana"]},
				{"title": "B", "ingredients": ["1 cup milk", "1 tbsp honey"], "extra": {"tags": ["sweet"]}},
				{"title": "C", "ingredients": []}
			]`,
			macros: func(in []string) (int, string) {
				return http.StatusOK, `{"count":` + jsonInt(len(in)) + `,"first":` + jsonFirst(in) + `}`
			},
		}
		srv := httptest.NewServer(api)
		defer srv.Close()

		Convey("When loading sequentially", func() {
			page, err := newLoader(srv).Load(context.Background())
			So(err, ShouldBeNil)

			Convey("Then it should issue N+1 requests, list first, macros in list order", func() {
				reqs := api.recorded()
				So(len(reqs), ShouldEqual, 4)
				So(reqs[0].Method, ShouldEqual, http.MethodGet)
				So(reqs[0].Path, ShouldEqual, loader.PathSmoothies)
				So(reqs[1].Body, ShouldEqual, `{"ingredients":["1 banana"]}`)
				So(reqs[2].Body, ShouldEqual, `{"ingredients":["1 cup milk","1 tbsp honey"]}`)
				So(reqs[3].Body, ShouldEqual, `{"ingredients":[]}`)
				for _, r := range reqs[1:] {
					So(r.Method, ShouldEqual, http.MethodPost)
					So(r.Path, ShouldEqual, loader.PathCalculateMacros)
					So(r.ContentType, ShouldEqual, "application/json")
				}
			})

			Convey("Then each smoothie should carry its own macro response in order", func() {
				So(len(page.Smoothies), ShouldEqual, 3)
				So(string(page.Smoothies[0].Macros), ShouldEqual, `{"count":1,"first":"1 banana"}`)
				So(string(page.Smoothies[1].Macros), ShouldEqual, `{"count":2,"first":"1 cup milk"}`)
				So(string(page.Smoothies[2].Macros), ShouldEqual, `{"count":0,"first":null}`)
			})

			Convey("Then backend fields should pass through untouched", func() {
				got := toJSONValue(t, page.Smoothies[1])
				want := parseJSON(t, `{
					"title": "B",
					"ingredients": ["1 cup milk", "1 tbsp honey"],
					"extra": {"tags": ["sweet"]},
					"macros": {"count": 2, "first": "1 cup milk"}
				}`)
				So(cmp.Diff(want, got), ShouldBeEmpty)
			})

			Convey("Then the source record should not gain a macros field", func() {
				_, ok := page.Smoothies[0].Smoothie.Field("macros")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When loading with a concurrency limit", func() {
			page, err := newLoader(srv, loader.WithConcurrency(3)).Load(context.Background())

			Convey("Then output order should still follow the list", func() {
				So(err, ShouldBeNil)
				So(len(api.recorded()), ShouldEqual, 4)
				So(api.recorded()[0].Path, ShouldEqual, loader.PathSmoothies)
				So(string(page.Smoothies[0].Macros), ShouldEqual, `{"count":1,"first":"1 banana"}`)
				So(string(page.Smoothies[1].Macros), ShouldEqual, `{"count":2,"first":"1 cup milk"}`)
				So(string(page.Smoothies[2].Macros), ShouldEqual, `{"count":0,"first":null}`)
			})
		})
	})
}

func TestLoadScenarios(t *testing.T) {
	Convey("Given a single banana and milk smoothie", t, func() {
		api := &fakeAPI{
			listBody: `[{"ingredients":["banana","milk"]}]`,
			macros:   func([]string) (int, string) { return http.StatusOK, `{"calories":200}` },
		}
		srv := httptest.NewServer(api)
		defer srv.Close()

		page, err := newLoader(srv).Load(context.Background())

		Convey("Then the page should hold the enriched record", func() {
			So(err, ShouldBeNil)
			So(cmp.Diff(
				parseJSON(t, `{"smoothies":[{"ingredients":["banana","milk"],"macros":{"calories":200}}]}`),
				toJSONValue(t, page),
			), ShouldBeEmpty)
		})
	})

	Convey("Given an empty smoothie list", t, func() {
		api := &fakeAPI{listBody: `[]`}
		srv := httptest.NewServer(api)
		defer srv.Close()

		page, err := newLoader(srv).Load(context.Background())

		Convey("Then the page should be empty and no macro request issued", func() {
			So(err, ShouldBeNil)
			data, _ := json.Marshal(page)
			So(string(data), ShouldEqual, `{"smoothies":[]}`)
			So(api.macroRequests(), ShouldEqual, 0)
		})
	})

	Convey("Given a smoothie without an ingredients field", t, func() {
		api := &fakeAPI{listBody: `[{"title":"Mystery"}]`}
		srv := httptest.NewServer(api)
		defer srv.Close()

		_, err := newLoader(srv).Load(context.Background())

		Convey("Then an empty ingredient list should be posted", func() {
			So(err, ShouldBeNil)
			So(api.recorded()[1].Body, ShouldEqual, `{"ingredients":[]}`)
		})
	})
}

func TestLoadFailures(t *testing.T) {
	Convey("Given a list endpoint that fails", t, func() {
		api := &fakeAPI{listStatus: http.StatusInternalServerError, listBody: `{"detail":"boom"}`}
		srv := httptest.NewServer(api)
		defer srv.Close()

		page, err := newLoader(srv).Load(context.Background())

		Convey("Then the load should fail with a status error and no macro requests", func() {
			var serr *loader.StatusError
			So(errors.As(err, &serr), ShouldBeTrue)
			So(serr.StatusCode, ShouldEqual, http.StatusInternalServerError)
			So(serr.Body, ShouldContainSubstring, "boom")
			So(errors.Is(err, loader.ErrUnexpectedStatus), ShouldBeTrue)
			So(page.Smoothies, ShouldBeNil)
			So(api.macroRequests(), ShouldEqual, 0)
		})
	})

	Convey("Given a list body that is not JSON", t, func() {
		api := &fakeAPI{listBody: `<html>oops</html>`}
		srv := httptest.NewServer(api)
		defer srv.Close()

		_, err := newLoader(srv).Load(context.Background())

		Convey("Then the load should fail with a decode error", func() {
			So(errors.Is(err, loader.ErrDecode), ShouldBeTrue)
			So(api.macroRequests(), ShouldEqual, 0)
		})
	})

	Convey("Given a list body of null", t, func() {
		api := &fakeAPI{listBody: `null`}
		srv := httptest.NewServer(api)
		defer srv.Close()

		_, err := newLoader(srv).Load(context.Background())

		Convey("Then it should be rejected as not an array", func() {
			So(errors.Is(err, loader.ErrDecode), ShouldBeTrue)
		})
	})

	Convey("Given a transport that cannot connect", t, func() {
		calls := 0
		fetch := loader.FetcherFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, errors.New("connection refused")
		})

		_, err := loader.New(fetch, loader.WithBaseURL("http://api.invalid")).Load(context.Background())

		Convey("Then the load should fail with a request error after one attempt", func() {
			So(errors.Is(err, loader.ErrRequest), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "connection refused")
			So(calls, ShouldEqual, 1)
		})
	})

	Convey("Given the second of three macro requests fails", t, func() {
		api := &fakeAPI{
			listBody: `[{"ingredients":["a"]},{"ingredients":["b"]},{"ingredients":["c"]}]`,
			macros: func(in []string) (int, string) {
				if in[0] == "b" {
					return http.StatusUnprocessableEntity, `{"detail":[]}`
				}
				return http.StatusOK, `{"calories":1}`
			},
		}
		srv := httptest.NewServer(api)
		defer srv.Close()

		Convey("When loading sequentially", func() {
			page, err := newLoader(srv).Load(context.Background())

			Convey("Then no partial result should be returned and the third request never sent", func() {
				So(errors.Is(err, loader.ErrUnexpectedStatus), ShouldBeTrue)
				So(err.Error(), ShouldStartWith, "smoothie 1:")
				So(page.Smoothies, ShouldBeNil)
				So(api.macroRequests(), ShouldEqual, 2)
			})
		})

		Convey("When loading concurrently", func() {
			page, err := newLoader(srv, loader.WithConcurrency(2)).Load(context.Background())

			Convey("Then the whole load should still fail", func() {
				So(errors.Is(err, loader.ErrUnexpectedStatus), ShouldBeTrue)
				So(err.Error(), ShouldStartWith, "smoothie 1:")
				So(page.Smoothies, ShouldBeNil)
			})
		})
	})

	Convey("Given a macro endpoint answering with invalid JSON", t, func() {
		api := &fakeAPI{
			listBody: `[{"ingredients":["a"]}]`,
			macros:   func([]string) (int, string) { return http.StatusOK, `{"calories":` },
		}
		srv := httptest.NewServer(api)
		defer srv.Close()

		_, err := newLoader(srv).Load(context.Background())

		Convey("Then the load should fail with a decode error", func() {
			So(errors.Is(err, loader.ErrDecode), ShouldBeTrue)
		})
	})

	Convey("Given a slow API and a request timeout", t, func() {
		api := &fakeAPI{listBody: `[]`, delay: 500 * time.Millisecond}
		srv := httptest.NewServer(api)
		defer srv.Close()

		_, err := newLoader(srv, loader.WithTimeout(20*time.Millisecond)).Load(context.Background())

		Convey("Then the load should fail with a deadline error", func() {
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})

	Convey("Given an already canceled context", t, func() {
		api := &fakeAPI{listBody: `[]`}
		srv := httptest.NewServer(api)
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newLoader(srv).Load(ctx)

		Convey("Then the load should fail with the cancellation", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestFetchMacros(t *testing.T) {
	Convey("Given a macro endpoint", t, func() {
		api := &fakeAPI{
			macros: func([]string) (int, string) { return http.StatusOK, "  {\"calories\": 12.5}\n" },
		}
		srv := httptest.NewServer(api)
		defer srv.Close()

		Convey("When fetching macros for a nil list", func() {
			m, err := newLoader(srv).FetchMacros(context.Background(), nil)

			Convey("Then it should send an empty array and return the body as is", func() {
				So(err, ShouldBeNil)
				So(string(m), ShouldEqual, `{"calories": 12.5}`)
				So(api.recorded()[0].Body, ShouldEqual, `{"ingredients":[]}`)
			})
		})

		Convey("When the base URL has a trailing slash", func() {
			l := loader.New(srv.Client(), loader.WithBaseURL(srv.URL+"/"))
			_, err := l.FetchMacros(context.Background(), []string{"x"})

			Convey("Then the path should not be doubled", func() {
				So(err, ShouldBeNil)
				So(api.recorded()[0].Path, ShouldEqual, loader.PathCalculateMacros)
			})
		})
	})
}

func TestSmoothieJSON(t *testing.T) {
	Convey("Given a smoothie decoded from the API", t, func() {
		var s loader.Smoothie
		err := json.Unmarshal([]byte(`{"title":"T","ingredients":["1 kiwi"],"macros":"stale"}`), &s)
		So(err, ShouldBeNil)

		Convey("Then its ingredients should be readable", func() {
			So(s.Ingredients, ShouldResemble, []string{"1 kiwi"})
		})

		Convey("When enriched", func() {
			e := s.WithMacros(loader.MacroResult(`{"calories":42}`))

			Convey("Then macros should replace any backend value", func() {
				var out struct {
					Title  string         `json:"title"`
					Macros map[string]int `json:"macros"`
				}
				So(e.Decode(&out), ShouldBeNil)
				So(out.Title, ShouldEqual, "T")
				So(out.Macros["calories"], ShouldEqual, 42)
			})

			Convey("Then the original should keep its own field", func() {
				raw, ok := s.Field("macros")
				So(ok, ShouldBeTrue)
				So(string(raw), ShouldEqual, `"stale"`)
			})
		})
	})

	Convey("Given list items that are not objects", t, func() {
		var list []loader.Smoothie
		err := json.Unmarshal([]byte(`[1, 2]`), &list)

		Convey("Then decoding should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given ingredients that are not strings", t, func() {
		var s loader.Smoothie
		err := json.Unmarshal([]byte(`{"ingredients":[1]}`), &s)

		Convey("Then decoding should fail", func() {
			So(err, ShouldNotBeNil)
			So(strings.Contains(err.Error(), "ingredients"), ShouldBeTrue)
		})
	})
}

func jsonInt(n int) string {
	data, _ := json.Marshal(n)
	return string(data)
}

func jsonFirst(in []string) string {
	if len(in) == 0 {
		return "null"
	}
	data, _ := json.Marshal(in[0])
	return string(data)
}
