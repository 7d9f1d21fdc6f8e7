package telemetry

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/retailops/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var profileTypes = map[string]pyroscope.ProfileType{
	"cpu":            pyroscope.ProfileCPU,
	"alloc_objects":  pyroscope.ProfileAllocObjects,
	"alloc_space":    pyroscope.ProfileAllocSpace,
	"inuse_objects":  pyroscope.ProfileInuseObjects,
	"inuse_space":    pyroscope.ProfileInuseSpace,
	"goroutines":     pyroscope.ProfileGoroutines,
	"mutex_count":    pyroscope.ProfileMutexCount,
	"mutex_duration": pyroscope.ProfileMutexDuration,
	"block_count":    pyroscope.ProfileBlockCount,
	"block_duration": pyroscope.ProfileBlockDuration,
}

// mutex and block profiles sample one event in this many.
const contentionSampleRate = 5

// parseProfileTypes maps configured names to pyroscope types. Names are
// case-insensitive; an unknown name is an error.
func parseProfileTypes(names []string) ([]pyroscope.ProfileType, error) {
	out := make([]pyroscope.ProfileType, 0, len(names))
	var unknown []string
	for _, n := range names {
		t, ok := profileTypes[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		out = append(out, t)
	}
	if len(unknown) > 0 {
		known := make([]string, 0, len(profileTypes))
		for k := range profileTypes {
			known = append(known, k)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("unknown profile types %v (known: %s)", unknown, strings.Join(known, ", "))
	}
	return out, nil
}

// Profiler pushes continuous profiles to Pyroscope. The zero value, returned
// when profiling is off, does nothing.
type Profiler struct {
	mu      sync.Mutex
	running *pyroscope.Profiler
	log     *zap.Logger
}

// StartProfiler starts profiling when cfg.ProfilingEnabled. Mutex and block
// sampling is switched on only when one of those profiles is requested.
func StartProfiler(cfg config.TelemetryConfig, log *zap.Logger) (*Profiler, error) {
	p := &Profiler{log: log}
	if !cfg.ProfilingEnabled {
		return p, nil
	}
	types, err := parseProfileTypes(cfg.ProfileTypes)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		switch t {
		case pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration:
			runtime.SetMutexProfileFraction(contentionSampleRate)
		case pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration:
			runtime.SetBlockProfileRate(contentionSampleRate)
		}
	}

	tags := map[string]string{}
	if host, err := os.Hostname(); err == nil {
		tags["hostname"] = host
	}
	running, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.ProfilingServer,
		Logger:          pyroscopeLogger{log.Named("pyroscope").Sugar()},
		Tags:            tags,
		ProfileTypes:    types,
	})
	if err != nil {
		return nil, fmt.Errorf("start profiler: %w", err)
	}
	p.running = running
	log.Info("continuous profiling started",
		zap.String("server", cfg.ProfilingServer),
		zap.Strings("profiles", cfg.ProfileTypes),
	)
	return p, nil
}

func (p *Profiler) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running != nil
}

// TracerProvider links spans to profiles by wrapping tp so every sampled
// span carries its span ID as a profile label. tp is returned unchanged
// when profiling is off.
func (p *Profiler) TracerProvider(tp trace.TracerProvider) trace.TracerProvider {
	if !p.Enabled() {
		return tp
	}
	return otelpyroscope.NewTracerProvider(tp)
}

// Stop flushes pending profiles. Later calls are no-ops.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	running := p.running
	p.running = nil
	p.mu.Unlock()
	if running == nil {
		return nil
	}
	if err := running.Stop(); err != nil {
		return fmt.Errorf("stop profiler: %w", err)
	}
	p.log.Info("continuous profiling stopped")
	return nil
}

type pyroscopeLogger struct{ s *zap.SugaredLogger }

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
