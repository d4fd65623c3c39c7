// Package connectivity хранит текущее состояние сети устройства и рассылает подписчикам
// переходы online/offline. Состояние меняется только по событиям платформы, опроса нет.
package connectivity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// subscriberBuffer: сколько переходов подписчик может не забирать, прежде чем
// старые начнут вытесняться.
const subscriberBuffer = 16

// Transition: смена состояния сети.
type Transition struct {
	Online bool
	At     time.Time
}

type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   map[int]chan Transition
	nextID int
	now    func() time.Time
}

// NewMonitor создаёт монитор с начальным состоянием, прочитанным при старте.
func NewMonitor(initial bool) *Monitor {
	return &Monitor{online: initial, subs: map[int]chan Transition{}, now: time.Now}
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set применяет событие платформы. Повтор текущего состояния игнорируется;
// возвращает true, если состояние изменилось.
func (m *Monitor) Set(online bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online == online {
		return false
	}
	m.online = online
	tr := Transition{Online: online, At: m.now()}
	for _, ch := range m.subs {
		select {
		case ch <- tr:
		default:
			// подписчик отстал: выбрасываем самый старый переход
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- tr:
			default:
			}
		}
	}
	return true
}

// Subscribe возвращает канал переходов и функцию отписки. После отписки канал закрывается.
func (m *Monitor) Subscribe() (<-chan Transition, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	ch := make(chan Transition, subscriberBuffer)
	m.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
}

// Watch применяет события из events, пока не закончится контекст или канал.
func (m *Monitor) Watch(ctx context.Context, events <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.Set(ev)
		}
	}
}

// ParseEvent разбирает текстовое событие сети.
func ParseEvent(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online", "up", "on", "1", "true":
		return true, nil
	case "offline", "down", "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("unknown connectivity event %q", s)
}
