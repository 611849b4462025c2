package workers

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-streamer/internal/logging"
	"github.com/annel0/voxel-streamer/internal/util"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrInvalidWorkerCount возвращается при попытке создать пул без воркеров
var ErrInvalidWorkerCount = errors.New("workers: worker count must be positive")

// Task - единица работы пула
type Task func()

// Pool - фиксированный набор горутин, разбирающих общую неограниченную очередь.
// Post никогда не блокируется; Stop дожидается выполнения всех принятых задач.
type Pool struct {
	queue  *util.Queue[Task]
	wg     sync.WaitGroup
	once   sync.Once
	size   int
	logger *logging.Logger

	active    atomic.Int64
	inflight  atomic.Int64 // принятые, но ещё не завершённые задачи
	completed atomic.Uint64
	panics    atomic.Uint64

	metrics *poolMetrics
}

// Option настраивает пул
type Option func(*Pool)

// WithLogger задаёт логгер для сообщений о паниках в задачах
func WithLogger(l *logging.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// WithRegisterer включает prometheus-метрики пула
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Pool) {
		if reg != nil {
			p.metrics = newPoolMetrics(reg, p)
		}
	}
}

// New создаёт пул из n воркеров и сразу запускает их
func New(n int, opts ...Option) (*Pool, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkerCount, n)
	}

	p := &Pool{
		queue:  util.NewQueue[Task](),
		size:   n,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker(i)
	}
	p.logger.Debug("Пул запущен: %d воркеров", n)
	return p, nil
}

// Post ставит задачу в очередь. Возвращает false, если пул остановлен.
func (p *Pool) Post(task Task) bool {
	if task == nil {
		return false
	}
	p.inflight.Add(1)
	if !p.queue.Push(task) {
		p.inflight.Add(-1)
		return false
	}
	if p.metrics != nil {
		p.metrics.posted.Inc()
	}
	return true
}

// Stop закрывает очередь, даёт воркерам доработать принятые задачи и ждёт их
func (p *Pool) Stop() {
	p.once.Do(func() {
		p.queue.Close()
		p.wg.Wait()
		p.logger.Debug("Пул остановлен: выполнено %d задач, паник %d", p.completed.Load(), p.panics.Load())
	})
}

// Size возвращает число воркеров
func (p *Pool) Size() int {
	return p.size
}

// Pending возвращает число задач в очереди
func (p *Pool) Pending() int {
	return p.queue.Len()
}

// Active возвращает число выполняющихся сейчас задач
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Idle сообщает, что все принятые задачи завершены.
// Задача, порождающая новые, успевает поставить их до своего завершения.
func (p *Pool) Idle() bool {
	return p.inflight.Load() == 0
}

// Completed возвращает число завершённых задач (включая упавшие)
func (p *Pool) Completed() uint64 {
	return p.completed.Load()
}

// Panics возвращает число задач, завершившихся паникой
func (p *Pool) Panics() uint64 {
	return p.panics.Load()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		task, ok := p.queue.Pop()
		if !ok {
			return
		}
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task Task) {
	p.active.Add(1)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			if p.metrics != nil {
				p.metrics.panics.Inc()
			}
			p.logger.Error("Паника в воркере %d: %v\n%s", id, r, debug.Stack())
		}
		p.active.Add(-1)
		p.completed.Add(1)
		p.inflight.Add(-1)
		if p.metrics != nil {
			p.metrics.duration.Observe(time.Since(start).Seconds())
		}
	}()
	task()
}

type poolMetrics struct {
	posted   prometheus.Counter
	panics   prometheus.Counter
	duration prometheus.Histogram
}

func newPoolMetrics(reg prometheus.Registerer, p *Pool) *poolMetrics {
	m := &poolMetrics{
		posted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streamer",
			Subsystem: "pool",
			Name:      "tasks_posted_total",
			Help:      "Общее число задач, принятых пулом.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streamer",
			Subsystem: "pool",
			Name:      "task_panics_total",
			Help:      "Задач, завершившихся паникой.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "streamer",
			Subsystem: "pool",
			Name:      "task_duration_seconds",
			Help:      "Длительность выполнения задач.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),
	}
	queued := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "streamer",
		Subsystem: "pool",
		Name:      "tasks_queued",
		Help:      "Задач, ожидающих в очереди.",
	}, func() float64 { return float64(p.queue.Len()) })

	reg.MustRegister(m.posted, m.panics, m.duration, queued)
	return m
}
