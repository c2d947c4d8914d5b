// Package monitoring serves the progress and the state of coupling schemes
// over HTTP while a coupled run is in progress.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	// Enable profiling
	_ "net/http/pprof"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"

	"github.com/ArminHamedi/precice/cplscheme"
	"github.com/ArminHamedi/precice/monitoring/web"
)

// Monitor turns a coupled run into a server that reports the state of the
// registered coupling schemes.
type Monitor struct {
	portNumber      int
	profileDuration time.Duration
	log             *logrus.Entry

	schemesLock sync.Mutex
	schemes     []*monitoredScheme

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
		log:             logrus.WithField("component", "monitor"),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.log.Warnf("Port number %d is not allowed for the monitoring "+
			"server, using a random port instead", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterScheme starts monitoring a scheme. The monitor observes the scheme
// through hooks, so the scheme must not be advanced concurrently with this
// call.
func (m *Monitor) RegisterScheme(s cplscheme.CouplingScheme) {
	total := uint64(0)
	if s.MaxTimesteps() > 0 {
		total = uint64(s.MaxTimesteps())
	}

	ms := &monitoredScheme{
		scheme: s,
		bar:    m.CreateProgressBar(s.LocalParticipant()+"@"+s.Name(), total),
	}
	ms.capture()

	s.AcceptHook(ms)

	m.schemesLock.Lock()
	defer m.schemesLock.Unlock()

	m.schemes = append(m.schemes, ms)
}

// Update refreshes the reported state of a registered scheme. It must be
// called from the goroutine that drives the scheme.
func (m *Monitor) Update(s cplscheme.CouplingScheme) {
	ms := m.find(s.Name(), s.LocalParticipant())
	if ms == nil {
		return
	}

	ms.capture()
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the router that serves the monitoring API and pages.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/schemes", m.listSchemes)
	r.HandleFunc("/api/scheme/{participant}/{name}", m.schemeDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts serving in the background and returns the URL of the
// monitor.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("monitoring: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring coupling with %s\n", url)

	m.server = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.WithError(err).Error("monitoring server stopped")
		}
	}()

	return url, nil
}

// StopServer stops a started server.
func (m *Monitor) StopServer() error {
	if m.server == nil {
		return nil
	}

	return m.server.Close()
}

func (m *Monitor) find(name, participant string) *monitoredScheme {
	m.schemesLock.Lock()
	defer m.schemesLock.Unlock()

	for _, s := range m.schemes {
		if s.scheme.Name() == name &&
			s.scheme.LocalParticipant() == participant {
			return s
		}
	}

	return nil
}

func (m *Monitor) findOr404(
	w http.ResponseWriter,
	name, participant string,
) *monitoredScheme {
	s := m.find(name, participant)
	if s == nil {
		http.Error(w, "Scheme not found", http.StatusNotFound)
	}

	return s
}

func (m *Monitor) listSchemes(w http.ResponseWriter, _ *http.Request) {
	m.schemesLock.Lock()
	statuses := make([]schemeStatus, 0, len(m.schemes))

	for _, s := range m.schemes {
		statuses = append(statuses, s.snapshot())
	}
	m.schemesLock.Unlock()

	m.writeJSON(w, statuses)
}

func (m *Monitor) schemeDetails(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s := m.findOr404(w, vars["name"], vars["participant"])
	if s == nil {
		return
	}

	status := s.snapshot()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&status)
	serializer.SetMaxDepth(2)

	if err := serializer.Serialize(w); err != nil {
		m.writeError(w, err)
	}
}

type fieldReq struct {
	SchemeName  string `json:"scheme_name,omitempty"`
	Participant string `json:"participant,omitempty"`
	FieldName   string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s := m.findOr404(w, req.SchemeName, req.Participant)
	if s == nil {
		return
	}

	status := s.snapshot()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&status)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := serializer.Serialize(w); err != nil {
		m.writeError(w, err)
	}
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]*ProgressBar, len(m.progressBars))
	copy(bars, m.progressBars)
	m.progressBarsLock.Unlock()

	m.writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.writeError(w, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		m.writeError(w, err)
		return
	}

	memorySize, err := proc.MemoryInfo()
	if err != nil {
		m.writeError(w, err)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		m.writeError(w, err)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.writeError(w, err)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(data); err != nil {
		m.log.WithError(err).Debug("writing response failed")
	}
}

func (m *Monitor) writeError(w http.ResponseWriter, err error) {
	m.log.WithError(err).Error("monitoring request failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
