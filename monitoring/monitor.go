// Package monitoring serves the state of a running simulation over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/JamesHertz/the-internet-simulator/device"
	"github.com/JamesHertz/the-internet-simulator/ethernet"
	"github.com/JamesHertz/the-internet-simulator/lan/learning"
	"github.com/JamesHertz/the-internet-simulator/sim"
)

// DeviceSource lists the devices to monitor. A simulation.Simulator is one.
type DeviceSource interface {
	ID() string
	Devices() []device.Device
	Device(mac ethernet.MacAddress) (device.Device, bool)
}

type learner interface {
	LearnTable() learning.Table
}

// Monitor turns a simulation into a server that allows external monitoring.
type Monitor struct {
	portNumber      int
	profileDuration time.Duration
	logger          *slog.Logger

	lock   sync.Mutex
	source DeviceSource
	server *http.Server

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
		logger:          slog.New(slog.DiscardHandler),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warn("port number not allowed, using a random port instead",
			slog.Int("port", portNumber))

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithLogger sets the logger of the monitor.
func (m *Monitor) WithLogger(logger *slog.Logger) *Monitor {
	m.logger = logger
	return m
}

// WithProfileDuration sets how long CPU profiles are collected for.
func (m *Monitor) WithProfileDuration(d time.Duration) *Monitor {
	m.profileDuration = d
	return m
}

// RegisterSimulator sets where the monitored devices come from.
func (m *Monitor) RegisterSimulator(s DeviceSource) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.source = s
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
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

// Handler returns the router serving the monitoring API.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/simulation", m.simulationInfo)
	r.HandleFunc("/api/devices", m.listDevices)
	r.HandleFunc("/api/device/{mac}", m.listDeviceDetails)
	r.HandleFunc("/api/device/{mac}/field/{field}", m.listFieldValue)
	r.HandleFunc("/api/learn_table/{mac}", m.listLearnTable)
	r.HandleFunc("/api/queues", m.listQueues)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("starting monitor: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	server := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	m.lock.Lock()
	m.server = server
	m.lock.Unlock()

	go func() {
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitor stopped", slog.String("err", err.Error()))
		}
	}()

	m.logger.Info("monitoring simulation", slog.String("url", url))

	return url, nil
}

// StopServer shuts the web server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	m.lock.Lock()
	server := m.server
	m.server = nil
	m.lock.Unlock()

	if server == nil {
		return nil
	}

	return server.Shutdown(ctx)
}

func (m *Monitor) devices() []device.Device {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.source == nil {
		return nil
	}

	return m.source.Devices()
}

type simulationRsp struct {
	ID      string `json:"id"`
	Devices int    `json:"devices"`
}

func (m *Monitor) simulationInfo(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	source := m.source
	m.lock.Unlock()

	if source == nil {
		http.Error(w, "no simulation registered", http.StatusNotFound)
		return
	}

	m.writeJSON(w, simulationRsp{
		ID:      source.ID(),
		Devices: len(source.Devices()),
	})
}

type interfaceRsp struct {
	ID   int    `json:"id"`
	Up   bool   `json:"up"`
	Link string `json:"link,omitempty"`
}

type deviceRsp struct {
	Name       string         `json:"name"`
	MAC        string         `json:"mac"`
	Kind       string         `json:"kind"`
	Pending    int            `json:"pending"`
	Interfaces []interfaceRsp `json:"interfaces"`
}

func describeDevice(d device.Device) deviceRsp {
	rsp := deviceRsp{
		Name:    d.Name(),
		MAC:     d.MACAddress().String(),
		Kind:    "host",
		Pending: d.Module().PendingMsgs(),
	}

	if _, ok := d.(learner); ok {
		rsp.Kind = "switch"
	}

	for _, iface := range d.Module().Interfaces() {
		ir := interfaceRsp{ID: iface.ID(), Up: iface.IsUp()}
		if ir.Up {
			ir.Link = iface.Connection().Link().Name()
		}

		rsp.Interfaces = append(rsp.Interfaces, ir)
	}

	return rsp
}

func (m *Monitor) listDevices(w http.ResponseWriter, _ *http.Request) {
	devices := m.devices()

	rsp := make([]deviceRsp, 0, len(devices))
	for _, d := range devices {
		rsp = append(rsp, describeDevice(d))
	}

	m.writeJSON(w, rsp)
}

func (m *Monitor) listDeviceDetails(w http.ResponseWriter, r *http.Request) {
	d := m.findDeviceOr404(w, mux.Vars(r)["mac"])
	if d == nil {
		return
	}

	snapshot := describeDevice(d)

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&snapshot)
	serializer.SetMaxDepth(2)

	err := serializer.Serialize(w)
	if err != nil {
		m.internalError(w, err)
	}
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	d := m.findDeviceOr404(w, vars["mac"])
	if d == nil {
		return
	}

	snapshot := describeDevice(d)

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&snapshot)
	serializer.SetMaxDepth(1)

	err := serializer.SetEntryPoint(strings.Split(vars["field"], "."))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = serializer.Serialize(w)
	if err != nil {
		m.internalError(w, err)
	}
}

func (m *Monitor) listLearnTable(w http.ResponseWriter, r *http.Request) {
	d := m.findDeviceOr404(w, mux.Vars(r)["mac"])
	if d == nil {
		return
	}

	l, ok := d.(learner)
	if !ok {
		http.Error(w, "device has no learn table", http.StatusBadRequest)
		return
	}

	m.writeJSON(w, l.LearnTable().Entries())
}

type queueRsp struct {
	Device string `json:"device"`
	Level  int    `json:"level"`
}

func (m *Monitor) listQueues(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queuesParseParams(r)
	if err != nil {
		http.Error(w, "Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	devices := m.devices()
	queues := make([]queueRsp, 0, len(devices))
	for _, d := range devices {
		queues = append(queues, queueRsp{
			Device: d.Name(),
			Level:  d.Module().PendingMsgs(),
		})
	}

	sort.SliceStable(queues, func(i, j int) bool {
		return queues[i].Level > queues[j].Level
	})

	m.writeJSON(w, selectPage(queues, limit, offset))
}

func queuesParseParams(r *http.Request) (limit, offset int, err error) {
	parse := func(key string) (int, error) {
		s := r.URL.Query().Get(key)
		if s == "" {
			return 0, nil
		}

		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid %s %q", key, s)
		}

		return n, nil
	}

	limit, err = parse("limit")
	if err != nil {
		return 0, 0, err
	}

	offset, err = parse("offset")
	if err != nil {
		return 0, 0, err
	}

	return limit, offset, nil
}

// selectPage returns at most limit items starting at offset. A zero limit
// selects everything after offset.
func selectPage[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		offset = len(items)
	}

	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return items[offset:end]
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()

	process, err := process.NewProcess(int32(pid))
	if err != nil {
		m.internalError(w, err)
		return
	}

	cpuPercent, err := process.CPUPercent()
	if err != nil {
		m.internalError(w, err)
		return
	}

	memorySize, err := process.MemoryInfo()
	if err != nil {
		m.internalError(w, err)
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
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.internalError(w, err)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) findDeviceOr404(
	w http.ResponseWriter,
	macStr string,
) device.Device {
	mac, err := ethernet.ParseMacAddress(macStr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	m.lock.Lock()
	source := m.source
	m.lock.Unlock()

	if source != nil {
		if d, found := source.Device(mac); found {
			return d
		}
	}

	http.Error(w, "Device not found", http.StatusNotFound)

	return nil
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		m.internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	if err != nil {
		m.logger.Warn("writing response", slog.String("err", err.Error()))
	}
}

func (m *Monitor) internalError(w http.ResponseWriter, err error) {
	m.logger.Error("monitor request failed", slog.String("err", err.Error()))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
