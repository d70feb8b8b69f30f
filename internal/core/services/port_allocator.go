package services

import (
	"fmt"
	"sync"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"
)

// portAllocator hands out publish ports by scanning the configured range in
// ascending order. The bound set and the scan are guarded by one mutex so
// concurrent Acquire calls can never hand out the same port.
type portAllocator struct {
	basePort int
	count    int

	mu    sync.Mutex
	bound map[int]bool
}

func NewPortAllocator(basePort, count int) (ports.PortAllocator, error) {
	if basePort <= 0 || basePort > 65535 {
		return nil, fmt.Errorf("base port %d out of range", basePort)
	}
	if count <= 0 || basePort+count-1 > 65535 {
		return nil, fmt.Errorf("port range [%d, %d] invalid", basePort, basePort+count-1)
	}
	return &portAllocator{
		basePort: basePort,
		count:    count,
		bound:    make(map[int]bool),
	}, nil
}

func (a *portAllocator) Acquire() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for p := a.basePort; p < a.basePort+a.count; p++ {
		if !a.bound[p] {
			a.bound[p] = true
			return p, nil
		}
	}
	return 0, domain.ErrNoFreePort
}

// Release returns a port to the free pool. Called exactly once per
// successful Acquire, after the owning process has fully terminated.
func (a *portAllocator) Release(port int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.bound, port)
}

func (a *portAllocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bound)
}
