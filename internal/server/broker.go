package server

// Broker fans one reload signal out to every connected livereload socket.
// Start owns the subscriber set on its own goroutine; everything else talks
// to it over channels, so there is no lock.
type Broker struct {
	publishCh chan struct{}
	subCh     chan chan struct{}
	unsubCh   chan chan struct{}
	stopCh    chan struct{}
}

func newBroker() *Broker {
	return &Broker{
		publishCh: make(chan struct{}, 1),
		subCh:     make(chan chan struct{}),
		unsubCh:   make(chan chan struct{}),
		stopCh:    make(chan struct{}),
	}
}

func (b *Broker) Start() {
	subs := map[chan struct{}]struct{}{}
	for {
		select {
		case <-b.stopCh:
			return
		case ch := <-b.subCh:
			subs[ch] = struct{}{}
		case ch := <-b.unsubCh:
			delete(subs, ch)
		case <-b.publishCh:
			for ch := range subs {
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (b *Broker) Stop() {
	close(b.stopCh)
}

func (b *Broker) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	b.subCh <- ch
	return ch
}

func (b *Broker) Unsubscribe(ch chan struct{}) {
	b.unsubCh <- ch
}

// Publish never blocks: a signal already in flight is signal enough.
func (b *Broker) Publish() {
	select {
	case b.publishCh <- struct{}{}:
	default:
	}
}
