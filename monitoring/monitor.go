// Package monitoring turns a set of hook engines into a web server, so the
// registered hooks and the in-flight chains can be inspected from outside
// the process.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/grapnel-io/grapnel/hooks"
	"github.com/grapnel-io/grapnel/monitoring/web"
)

// Monitor exposes registered hook engines over HTTP.
type Monitor struct {
	portNumber  int
	actualPort  int
	engineNames []string
	engines     map[string]*hooks.Engine

	chainLock sync.Mutex
	inflight  map[string]*ChainProgress
	completed uint64
	failed    uint64
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		engines:  make(map[string]*hooks.Engine),
		inflight: make(map[string]*ChainProgress),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers an engine to be monitored under the given name.
// The monitor attaches an observer to the engine to track its in-flight
// chains.
func (m *Monitor) RegisterEngine(name string, e *hooks.Engine) {
	if _, exists := m.engines[name]; exists {
		panic(fmt.Sprintf("engine %s is already registered", name))
	}

	m.engineNames = append(m.engineNames, name)
	m.engines[name] = e

	e.AcceptObserver(&chainWatcher{monitor: m, engine: name})
}

// StartServer starts the monitor as a web server, on the configured port or
// a random one.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/engines", m.listEngines)
	r.HandleFunc("/api/hooks/{engine}", m.listHooks)
	r.HandleFunc("/api/hook/{engine}/{qualifier}/{name}", m.listHookDetails)
	r.HandleFunc("/api/engine/{engine}", m.engineDetails)
	r.HandleFunc("/api/progress", m.listProgress)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	fs := web.GetAssets()
	r.PathPrefix("/").Handler(http.FileServer(fs))
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.actualPort = listener.Addr().(*net.TCPAddr).Port

	fmt.Fprintf(
		os.Stderr,
		"Monitoring hook engines with http://localhost:%d\n",
		m.actualPort)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

// OpenDashboard opens the monitor page in the default browser. The server
// must have been started.
func (m *Monitor) OpenDashboard() {
	if m.actualPort == 0 {
		panic("monitoring server is not started")
	}

	err := browser.OpenURL(
		fmt.Sprintf("http://localhost:%d", m.actualPort))
	dieOnErr(err)
}

func (m *Monitor) listEngines(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, name := range m.engineNames {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "%q", name)
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) listHooks(w http.ResponseWriter, r *http.Request) {
	reg := m.findRegistryOr404(w, mux.Vars(r)["engine"])
	if reg == nil {
		return
	}

	names := reg.HookNames()
	strs := make([]string, 0, len(names))
	for _, n := range names {
		strs = append(strs, n.String())
	}

	writeJSON(w, strs)
}

type middlewareRsp struct {
	Name       string `json:"name"`
	Convention string `json:"convention"`
}

type hookRsp struct {
	Name       string          `json:"name"`
	Declared   bool            `json:"declared"`
	Middleware []middlewareRsp `json:"middleware"`
}

func (m *Monitor) listHookDetails(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	reg := m.findRegistryOr404(w, vars["engine"])
	if reg == nil {
		return
	}

	name := hooks.QualifiedName{
		Qualifier: vars["qualifier"],
		Name:      vars["name"],
	}

	rsp := hookRsp{
		Name:     name.String(),
		Declared: reg.IsDeclared(name),
	}
	for _, mw := range reg.ListMiddleware(name) {
		rsp.Middleware = append(rsp.Middleware, middlewareRsp{
			Name:       mw.Name(),
			Convention: conventionLabel(mw),
		})
	}

	writeJSON(w, rsp)
}

func conventionLabel(mw *hooks.Middleware) string {
	if mw.IsLegacy() {
		return "legacy"
	}

	return mw.ConventionFor(0).String()
}

func (m *Monitor) engineDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["engine"]

	engine, ok := m.engines[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "Engine not found")
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(engine)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type progressRsp struct {
	Inflight  []*ChainProgress `json:"inflight"`
	Completed uint64           `json:"completed"`
	Failed    uint64           `json:"failed"`
}

func (m *Monitor) listProgress(w http.ResponseWriter, _ *http.Request) {
	m.chainLock.Lock()

	rsp := progressRsp{
		Inflight:  make([]*ChainProgress, 0, len(m.inflight)),
		Completed: m.completed,
		Failed:    m.failed,
	}
	for _, c := range m.inflight {
		rsp.Inflight = append(rsp.Inflight, c)
	}

	m.chainLock.Unlock()

	sort.Slice(rsp.Inflight, func(i, j int) bool {
		return rsp.Inflight[i].StartTime.Before(rsp.Inflight[j].StartTime)
	})

	writeJSON(w, rsp)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func (m *Monitor) findRegistryOr404(
	w http.ResponseWriter,
	name string,
) *hooks.Registry {
	engine, ok := m.engines[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "Engine not found")
		return nil
	}

	reg := engine.Registry()
	if reg == nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "Engine has no registry")
		return nil
	}

	return reg
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
