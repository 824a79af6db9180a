package crawler

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/spellex-network/spellex-daemon/pkg/explorer"
)

const (
	eventQueueMaxSize = 100
	errorQueueMaxSize = 10
)

type chainWatcher struct {
	interval     int
	explorerSvc  explorer.Service
	errChan      chan error
	eventChan    chan Event
	observables  map[string]*observableHandler
	errorHandler func(err error)
	mutex        *sync.RWMutex
	wg           *sync.WaitGroup
}

// Opts defines the parameters needed for creating a watcher service with
// the NewService method.
type Opts struct {
	ExplorerSvc            explorer.Service
	IntervalInMilliseconds int
	ErrorHandler           func(err error)
}

// NewService returns a chain watcher ready to poll the explorer for the
// registered observables. Use the Start and Stop methods to manage it.
func NewService(opts Opts) Service {
	return &chainWatcher{
		interval:     opts.IntervalInMilliseconds,
		explorerSvc:  opts.ExplorerSvc,
		errChan:      make(chan error, errorQueueMaxSize),
		eventChan:    make(chan Event, eventQueueMaxSize),
		observables:  map[string]*observableHandler{},
		errorHandler: opts.ErrorHandler,
		mutex:        &sync.RWMutex{},
		wg:           &sync.WaitGroup{},
	}
}

// Start runs the watcher until Stop is called, dispatching observation
// errors to the configured handler.
func (w *chainWatcher) Start() {
	for err := range w.errChan {
		go w.errorHandler(err)
	}
}

// Stop stops all the running observables and closes the watcher.
func (w *chainWatcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	for _, obsHandler := range w.observables {
		go obsHandler.stop()
	}
	w.wg.Wait()
	w.eventChan <- QuitEvent{}
	close(w.errChan)
}

// GetEventChannel returns the channel the watcher emits chain events on.
func (w *chainWatcher) GetEventChannel() chan Event {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.eventChan
}

// AddObservable starts watching the given observable, unless one with the
// same key is already watched.
func (w *chainWatcher) AddObservable(observable Observable) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if _, ok := w.observables[observable.Key()]; !ok {
		obsHandler := newObservableHandler(
			observable,
			w.explorerSvc,
			w.wg,
			w.interval,
			w.eventChan,
			w.errChan,
		)

		w.observables[observable.Key()] = obsHandler
		go obsHandler.start()
	}
}

// RemoveObservable stops watching the given observable.
func (w *chainWatcher) RemoveObservable(observable Observable) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if obsHandler, ok := w.observables[observable.Key()]; ok {
		obsHandler.stop()
		delete(w.observables, observable.Key())
	}
}

type observableHandler struct {
	observable  Observable
	explorerSvc explorer.Service
	wg          *sync.WaitGroup
	ticker      *time.Ticker
	eventChan   chan Event
	errChan     chan error
	stopChan    chan struct{}
}

func newObservableHandler(
	observable Observable,
	explorerSvc explorer.Service,
	wg *sync.WaitGroup,
	interval int,
	eventChan chan Event,
	errChan chan error,
) *observableHandler {
	return &observableHandler{
		observable:  observable,
		explorerSvc: explorerSvc,
		wg:          wg,
		ticker:      time.NewTicker(time.Duration(interval) * time.Millisecond),
		eventChan:   eventChan,
		errChan:     errChan,
		stopChan:    make(chan struct{}, 1),
	}
}

func (oh *observableHandler) start() {
	oh.logAction("start")
	oh.wg.Add(1)
	for {
		select {
		case <-oh.ticker.C:
			event, err := oh.observable.Observe(oh.explorerSvc)
			if err != nil {
				oh.errChan <- err
				continue
			}
			if event != nil {
				oh.eventChan <- event
			}
		case <-oh.stopChan:
			oh.ticker.Stop()
			close(oh.stopChan)
			return
		}
	}
}

func (oh *observableHandler) stop() {
	oh.logAction("stop")
	oh.stopChan <- struct{}{}
	oh.wg.Done()
}

func (oh *observableHandler) logAction(action string) {
	switch oh.observable.(type) {
	case *AddressObservable:
		log.Debugf("%s observing address: %v", action, oh.observable.Key())
	case *TransactionObservable:
		log.Debugf("%s observing tx: %v", action, oh.observable.Key())
	}
}
