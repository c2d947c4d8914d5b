package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/ArminHamedi/precice/com/direct"
	"github.com/ArminHamedi/precice/cplscheme"
	"github.com/ArminHamedi/precice/mesh"
)

func newScheme() *cplscheme.SerialExplicit {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	end, _ := direct.MakeBuilder().Build("FluidSolid")

	s, err := cplscheme.MakeBuilder().
		WithParticipants("Fluid", "Solid").
		WithLocalParticipant("Fluid").
		WithCommunication(end).
		WithTimestepLength(0.1).
		WithMaxTimesteps(10).
		WithLogger(logger).
		BuildExplicit("FluidSolid")
	Expect(err).NotTo(HaveOccurred())
	Expect(s.AddDataToSend(mesh.NewData(0, "Forces", "Surface", 2), false)).
		To(Succeed())

	return s
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		scheme *cplscheme.SerialExplicit
		h      http.Handler
	)

	BeforeEach(func() {
		m = NewMonitor()
		m.profileDuration = 10 * time.Millisecond
		scheme = newScheme()
		m.RegisterScheme(scheme)
		h = m.Handler()
	})

	It("should replace reserved ports with a random one", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(8123).portNumber).To(Equal(8123))
	})

	It("should list registered schemes", func() {
		rec := get(h, "/api/schemes")

		Expect(rec.Code).To(Equal(http.StatusOK))

		var statuses []schemeStatus
		Expect(json.Unmarshal(rec.Body.Bytes(), &statuses)).To(Succeed())
		Expect(statuses).To(HaveLen(1))
		Expect(statuses[0].Name).To(Equal("FluidSolid"))
		Expect(statuses[0].Participant).To(Equal("Fluid"))
		Expect(statuses[0].BasicState).To(HavePrefix("dt# 0 of 10"))
		Expect(statuses[0].Ongoing).To(BeTrue())
	})

	It("should report a scheme state only after an update", func() {
		Expect(scheme.SetState(cplscheme.State{
			Time:           0.3,
			Timesteps:      3,
			TimestepLength: 0.1,
			IsInitialized:  true,
			Actions:        []cplscheme.Action{cplscheme.ActionWriteIterationCheckpoint},
			MaxIterations:  cplscheme.UndefinedMaxIterations,
		})).To(Succeed())

		Expect(m.find("FluidSolid", "Fluid").snapshot().Timesteps).To(Equal(0))

		m.Update(scheme)

		status := m.find("FluidSolid", "Fluid").snapshot()
		Expect(status.Timesteps).To(Equal(3))
		Expect(status.RequiredActions).To(ConsistOf(
			cplscheme.ActionWriteIterationCheckpoint.String()))
	})

	It("should track progress through hooks", func() {
		scheme.InvokeHook(cplscheme.HookCtx{
			Domain: scheme,
			Pos:    cplscheme.HookPosIterationComplete,
			Item:   cplscheme.IterationInfo{Timestep: 0, Iteration: 1},
		})

		bar := m.progressBars[0]
		Expect(bar.Name).To(Equal("Fluid@FluidSolid"))
		Expect(bar.Total).To(Equal(uint64(10)))
		Expect(bar.InProgress).To(Equal(uint64(1)))

		scheme.InvokeHook(cplscheme.HookCtx{
			Domain: scheme,
			Pos:    cplscheme.HookPosTimestepComplete,
			Item:   1,
		})

		rec := get(h, "/api/progress")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var bars []progressBarRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Finished).To(Equal(uint64(1)))
		Expect(bars[0].InProgress).To(Equal(uint64(0)))
	})

	It("should remove completed progress bars", func() {
		bar := m.CreateProgressBar("extra", 3)
		Expect(m.progressBars).To(HaveLen(2))

		m.CompleteProgressBar(bar)

		Expect(m.progressBars).To(HaveLen(1))
		Expect(m.progressBars[0]).NotTo(BeIdenticalTo(bar))
	})

	It("should serve scheme details", func() {
		rec := get(h, "/api/scheme/Fluid/FluidSolid")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should answer 404 for unknown schemes", func() {
		Expect(get(h, "/api/scheme/Solid/FluidSolid").Code).
			To(Equal(http.StatusNotFound))

		req := url.PathEscape(`{"scheme_name":"Other","participant":"Fluid"}`)
		Expect(get(h, "/api/field/"+req).Code).
			To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		Expect(get(h, "/api/field/not-json").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should report resources", func() {
		rec := get(h, "/api/resource")

		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp resourceRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should collect a profile", func() {
		rec := get(h, "/api/profile")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
	})

	It("should serve the web page", func() {
		rec := get(h, "/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should start and stop a server", func() {
		addr, err := m.StartServer()
		Expect(err).NotTo(HaveOccurred())

		defer m.StopServer()

		rsp, err := http.Get(addr + "/api/schemes")
		Expect(err).NotTo(HaveOccurred())
		rsp.Body.Close()
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})
})
