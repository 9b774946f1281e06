package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/phayes/freeport"

	"github.com/mudler/LocalSRS/core/application"
	"github.com/mudler/LocalSRS/core/config"
	. "github.com/mudler/LocalSRS/core/http"
	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/pkg/transcribe"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const apiKey = "joshua"
const bearerKey = "Bearer " + apiKey

func doRequest(method, url string, body io.Reader, headers map[string]string) (*http.Response, []byte) {
	req, err := http.NewRequest(method, url, body)
	Expect(err).ToNot(HaveOccurred())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	Expect(err).ToNot(HaveOccurred())
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	Expect(err).ToNot(HaveOccurred())
	return resp, b
}

func authedGet(url string) (*http.Response, []byte) {
	return doRequest("GET", url, nil, map[string]string{"Authorization": bearerKey})
}

func multipartUpload(url string, fields map[string]string, fileName string, fileContent []byte) (*http.Response, []byte) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		Expect(w.WriteField(k, v)).To(Succeed())
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("files", fileName)
		Expect(err).ToNot(HaveOccurred())
		_, err = fw.Write(fileContent)
		Expect(err).ToNot(HaveOccurred())
	}
	Expect(w.Close()).To(Succeed())

	return doRequest("POST", url, &buf, map[string]string{
		"Authorization": bearerKey,
		"Content-Type":  w.FormDataContentType(),
	})
}

var _ = Describe("API", func() {
	var (
		app         *application.Application
		e           *echo.Echo
		baseURL     string
		sessionsDir string
		cancel      context.CancelFunc
	)

	BeforeEach(func() {
		var err error
		sessionsDir, err = os.MkdirTemp(tmpdir, "sessions")
		Expect(err).ToNot(HaveOccurred())

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())

		app, err = application.New(
			config.WithContext(ctx),
			config.WithSessionsPath(sessionsDir),
			config.WithApiKeys([]string{apiKey}),
			config.WithTranscribeConfig(transcribe.Config{
				Backend: transcribe.BackendOpenAI,
				// Nothing listens here; transcription attempts fail fast.
				BaseURL: "http://127.0.0.1:1/v1",
			}),
			// The metrics exporter registers into the global prometheus
			// registry, which cannot happen twice in one process.
			config.DisableMetricsEndpoint,
		)
		Expect(err).ToNot(HaveOccurred())

		e, err = API(app)
		Expect(err).ToNot(HaveOccurred())

		port, err := freeport.GetFreePort()
		Expect(err).ToNot(HaveOccurred())
		baseURL = fmt.Sprintf("http://127.0.0.1:%d", port)

		go func() {
			_ = e.Start(fmt.Sprintf("127.0.0.1:%d", port))
		}()

		Eventually(func() error {
			resp, err := http.Get(baseURL + "/healthz")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("status %d", resp.StatusCode)
			}
			return nil
		}, "10s", "50ms").Should(Succeed())
	})

	AfterEach(func() {
		Expect(e.Shutdown(context.Background())).To(Succeed())
		Expect(app.Shutdown(context.Background())).To(Succeed())
		cancel()
		Expect(os.RemoveAll(sessionsDir)).To(Succeed())
	})

	Context("authentication", func() {
		It("rejects requests without a key", func() {
			resp, body := doRequest("GET", baseURL+"/v1/presets", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("WWW-Authenticate")).To(Equal("Bearer"))

			var errResp schema.ErrorResponse
			Expect(json.Unmarshal(body, &errResp)).To(Succeed())
			Expect(errResp.Error).ToNot(BeNil())
			Expect(errResp.Error.Message).To(ContainSubstring("authentication key"))
		})

		It("rejects a wrong key", func() {
			resp, _ := doRequest("GET", baseURL+"/v1/presets", nil, map[string]string{"Authorization": "Bearer nope"})
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("accepts the bearer key", func() {
			resp, _ := authedGet(baseURL + "/v1/presets")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("accepts the x-api-key header", func() {
			resp, _ := doRequest("GET", baseURL+"/v1/presets", nil, map[string]string{"x-api-key": apiKey})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("leaves the health endpoints open", func() {
			resp, _ := doRequest("GET", baseURL+"/readyz", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Context("presets", func() {
		It("always lists the built-in default", func() {
			resp, body := authedGet(baseURL + "/v1/presets")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var presets []config.Preset
			Expect(json.Unmarshal(body, &presets)).To(Succeed())
			Expect(presets).ToNot(BeEmpty())

			names := make([]string, 0, len(presets))
			for _, p := range presets {
				names = append(names, p.Name)
			}
			Expect(names).To(ContainElement("default"))
		})

		It("gets the default preset with its effective values", func() {
			resp, body := authedGet(baseURL + "/v1/presets/default")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var preset config.Preset
			Expect(json.Unmarshal(body, &preset)).To(Succeed())
			Expect(preset.Language).To(Equal("ja"))
			Expect(preset.Segmentation.SoftLimit).To(BeNumerically(">", 0))
		})

		It("404s on unknown presets", func() {
			resp, _ := authedGet(baseURL + "/v1/presets/does-not-exist")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("system", func() {
		It("reports version and external tools", func() {
			resp, body := authedGet(baseURL + "/v1/system")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var sys schema.SystemResponse
			Expect(json.Unmarshal(body, &sys)).To(Succeed())
			Expect(sys.Version).To(ContainSubstring("LocalSRS"))
			Expect(sys.Tools).To(HaveKey("ffmpeg"))
			Expect(sys.Tools).To(HaveKey("yt-dlp"))
		})
	})

	Context("sessions", func() {
		It("starts with no sessions", func() {
			resp, body := authedGet(baseURL + "/v1/sessions")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var infos []schema.SessionInfo
			Expect(json.Unmarshal(body, &infos)).To(Succeed())
			Expect(infos).To(BeEmpty())
		})

		It("404s on unknown sessions", func() {
			resp, _ := authedGet(baseURL + "/v1/sessions/ghost")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

			resp, _ = doRequest("DELETE", baseURL+"/v1/sessions/ghost", nil, map[string]string{"Authorization": bearerKey})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("sweeps nothing when there is nothing to sweep", func() {
			resp, body := doRequest("POST", baseURL+"/v1/sessions/sweep", nil, map[string]string{"Authorization": bearerKey})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var sweep schema.SweepResponse
			Expect(json.Unmarshal(body, &sweep)).To(Succeed())
			Expect(sweep.Swept).To(BeEmpty())
		})

		It("404s regeneration of a session without transcripts", func() {
			resp, _ := doRequest("POST", baseURL+"/v1/sessions/ghost/regenerate", nil, map[string]string{"Authorization": bearerKey})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("jobs", func() {
		It("starts with no jobs", func() {
			resp, body := authedGet(baseURL + "/v1/jobs")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var jobs []schema.Job
			Expect(json.Unmarshal(body, &jobs)).To(Succeed())
			Expect(jobs).To(BeEmpty())
		})

		It("rejects unknown state filters", func() {
			resp, _ := authedGet(baseURL + "/v1/jobs?state=sleeping")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("404s on unknown jobs", func() {
			resp, _ := authedGet(baseURL + "/v1/jobs/ghost")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

			resp, _ = doRequest("DELETE", baseURL+"/v1/jobs/ghost", nil, map[string]string{"Authorization": bearerKey})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("decks", func() {
		It("rejects an upload without files", func() {
			resp, _ := multipartUpload(baseURL+"/v1/decks", map[string]string{"deck_name": "Empty"}, "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects an unknown deck mode", func() {
			resp, _ := multipartUpload(baseURL+"/v1/decks",
				map[string]string{"deck_mode": "sideways"}, "a.mp3", []byte("x"))
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects an unknown preset", func() {
			resp, _ := multipartUpload(baseURL+"/v1/decks",
				map[string]string{"preset": "nope"}, "a.mp3", []byte("x"))
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("queues a job for an upload and tracks it to failure", func() {
			resp, body := multipartUpload(baseURL+"/v1/decks",
				map[string]string{"deck_name": "Lesson"}, "lesson.mp3", []byte("not really audio"))
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			var submitted schema.JobSubmittedResponse
			Expect(json.Unmarshal(body, &submitted)).To(Succeed())
			Expect(submitted.JobID).ToNot(BeEmpty())
			Expect(submitted.SessionID).ToNot(BeEmpty())

			// The transcription backend is unreachable, so the job must fail.
			Eventually(func() schema.JobState {
				_, body := authedGet(baseURL + "/v1/jobs/" + submitted.JobID)
				var job schema.Job
				if err := json.Unmarshal(body, &job); err != nil {
					return ""
				}
				return job.State
			}, "30s", "100ms").Should(Equal(schema.JobStateFailed))

			// Its session is now visible with the uploaded source on disk.
			resp, body = authedGet(baseURL + "/v1/sessions/" + submitted.SessionID)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var info schema.SessionInfo
			Expect(json.Unmarshal(body, &info)).To(Succeed())
			Expect(info.ID).To(Equal(submitted.SessionID))

			// And the failure left an audit row in the deck history.
			Eventually(func() int {
				_, body := authedGet(baseURL + "/v1/decks?session=" + submitted.SessionID)
				var recs []map[string]any
				if err := json.Unmarshal(body, &recs); err != nil {
					return 0
				}
				return len(recs)
			}, "10s", "100ms").Should(BeNumerically(">=", 1))
		})

		It("lists an empty history and 404s unknown downloads", func() {
			resp, body := authedGet(baseURL + "/v1/decks")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(bytes.TrimSpace(body)).To(Or(Equal([]byte("[]")), Equal([]byte("null"))))

			resp, _ = authedGet(baseURL + "/v1/decks/ghost/download")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("downloads", func() {
		It("requires a url", func() {
			resp, _ := doRequest("POST", baseURL+"/v1/downloads",
				bytes.NewBufferString(`{}`),
				map[string]string{"Authorization": bearerKey, "Content-Type": "application/json"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("refuses local sources unless enabled", func() {
			resp, body := doRequest("POST", baseURL+"/v1/downloads",
				bytes.NewBufferString(`{"url":"/etc/passwd"}`),
				map[string]string{"Authorization": bearerKey, "Content-Type": "application/json"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(string(body)).To(ContainSubstring("local sources"))
		})
	})

	Context("transcripts", func() {
		It("rejects unknown formats", func() {
			resp, _ := authedGet(baseURL + "/v1/sessions/ghost/transcripts/video?format=doc")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("404s when nothing is cached", func() {
			resp, _ := authedGet(baseURL + "/v1/sessions/ghost/transcripts/video")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("welcome page", func() {
		It("renders HTML when asked for it", func() {
			resp, body := doRequest("GET", baseURL+"/", nil, map[string]string{
				"Authorization": bearerKey,
				"Accept":        "text/html",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring("LocalSRS"))
		})

		It("answers JSON otherwise", func() {
			resp, body := doRequest("GET", baseURL+"/", nil, map[string]string{"Authorization": bearerKey})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var summary map[string]any
			Expect(json.Unmarshal(body, &summary)).To(Succeed())
			Expect(summary).To(HaveKey("Version"))
		})
	})

	Context("version", func() {
		It("reports the printable version", func() {
			resp, body := authedGet(baseURL + "/version")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring("version"))
		})
	})

	It("404s unknown API routes as JSON", func() {
		resp, body := doRequest("GET", baseURL+"/v1/nothing-here", nil, map[string]string{
			"Authorization": bearerKey,
			"Content-Type":  "application/json",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

		var errResp schema.ErrorResponse
		Expect(json.Unmarshal(body, &errResp)).To(Succeed())
		Expect(errResp.Error).ToNot(BeNil())
	})

	It("does not tag responses when no machine tag is configured", func() {
		resp, _ := authedGet(baseURL + "/v1/presets")
		Expect(resp.Header.Get("Machine-Tag")).To(BeEmpty())
	})
})
