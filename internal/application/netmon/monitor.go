package netmon

import (
	"context"
	"sync"
	"time"

	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

// State calidad de la conexión, de peor a mejor.
type State string

const (
	StateOffline  State = "offline"
	StatePoor     State = "poor"
	StateModerate State = "moderate"
	StateGood     State = "good"
)

// Umbrales de clasificación.
const (
	poorLossRatio       = 0.20
	poorLatency         = 1500 * time.Millisecond
	moderateLatency     = 500 * time.Millisecond
	moderateDownlinkMbs = 1.0
)

// Prober hace un viaje de ida y vuelta liviano contra el servidor y devuelve
// la latencia medida.
type Prober interface {
	Probe(ctx context.Context) (time.Duration, error)
}

// LinkHint pistas opcionales del enlace (clase de red y ancho de banda),
// análogas a la Network Information API del cliente original. Cero valores =
// sin pista.
type LinkHint struct {
	Class        string  // "slow-2g", "2g", "3g", "4g"
	DownlinkMbps float64 // 0 = desconocido
}

// Transition cambio de estado de la conexión.
type Transition struct {
	From State
	To   State
}

// ShouldTriggerSync decide si la transición amerita disparar una
// sincronización: solo al llegar a good/moderate viniendo de poor/offline.
// Este rebote evita tormentas de sync cuando la conexión oscila.
func ShouldTriggerSync(t Transition) bool {
	arrived := t.To == StateGood || t.To == StateModerate
	from := t.From == StatePoor || t.From == StateOffline
	return arrived && from
}

type sample struct {
	ok      bool
	latency time.Duration
}

// Monitor muestrea la conexión a intervalo fijo, mantiene una ventana
// deslizante acotada y emite un evento solo cuando el estado cambia.
type Monitor struct {
	prober   Prober
	interval time.Duration
	window   int
	log      *logger.Logger

	mu            sync.Mutex
	samples       []sample
	state         State
	hint          LinkHint
	forcedOffline bool

	transitions chan Transition
}

// New construye el monitor. window es la cantidad de muestras de la ventana
// (5 en el cliente original); interval el período de muestreo.
func New(prober Prober, interval time.Duration, window int, log *logger.Logger) *Monitor {
	if window <= 0 {
		window = 5
	}
	return &Monitor{
		prober:      prober,
		interval:    interval,
		window:      window,
		log:         log,
		state:       StateGood, // optimista hasta la primera muestra
		transitions: make(chan Transition, 8),
	}
}

// Transitions canal de cambios de estado. Buffer acotado: si nadie consume,
// los eventos más nuevos se descartan antes que bloquear el muestreo.
func (m *Monitor) Transitions() <-chan Transition {
	return m.transitions
}

// State estado actual.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetLinkHint actualiza las pistas del enlace y reevalúa el estado.
func (m *Monitor) SetLinkHint(h LinkHint) {
	m.mu.Lock()
	m.hint = h
	m.mu.Unlock()
	m.reclassify()
}

// SetOffline fuerza el estado offline (análogo al evento offline del
// navegador) o lo libera.
func (m *Monitor) SetOffline(offline bool) {
	m.mu.Lock()
	m.forcedOffline = offline
	m.mu.Unlock()
	m.reclassify()
}

// Run muestrea hasta que el contexto se cancele.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.SampleOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SampleOnce(ctx)
		}
	}
}

// SampleOnce toma una muestra y reevalúa el estado. Exportado para que los
// tests controlen el muestreo sin reloj real.
func (m *Monitor) SampleOnce(ctx context.Context) {
	latency, err := m.prober.Probe(ctx)
	s := sample{ok: err == nil, latency: latency}

	m.mu.Lock()
	m.samples = append(m.samples, s)
	if len(m.samples) > m.window {
		m.samples = m.samples[len(m.samples)-m.window:]
	}
	m.mu.Unlock()

	m.reclassify()
}

// reclassify recalcula el estado y emite la transición si cambió.
func (m *Monitor) reclassify() {
	m.mu.Lock()
	next := m.classifyLocked()
	prev := m.state
	if next == prev {
		m.mu.Unlock()
		return
	}
	m.state = next
	m.mu.Unlock()

	t := Transition{From: prev, To: next}
	m.log.Info().Str("from", string(prev)).Str("to", string(next)).Msg("cambio de calidad de conexión")
	select {
	case m.transitions <- t:
	default:
		m.log.Warn().Msg("canal de transiciones lleno, evento descartado")
	}
}

// classifyLocked evalúa en orden de precedencia: offline, poor, moderate, good.
func (m *Monitor) classifyLocked() State {
	if m.forcedOffline {
		return StateOffline
	}

	total := len(m.samples)
	if total == 0 {
		return m.state
	}
	failed := 0
	var latencySum time.Duration
	okCount := 0
	for _, s := range m.samples {
		if s.ok {
			okCount++
			latencySum += s.latency
		} else {
			failed++
		}
	}

	// Ventana completa de pérdidas: offline.
	if total >= m.window && failed == total {
		return StateOffline
	}

	loss := float64(failed) / float64(total)
	var avg time.Duration
	if okCount > 0 {
		avg = latencySum / time.Duration(okCount)
	}

	if loss >= poorLossRatio || avg > poorLatency || m.hint.Class == "2g" || m.hint.Class == "slow-2g" {
		return StatePoor
	}
	if avg > moderateLatency || m.hint.Class == "3g" || (m.hint.DownlinkMbps > 0 && m.hint.DownlinkMbps < moderateDownlinkMbs) {
		return StateModerate
	}
	return StateGood
}
