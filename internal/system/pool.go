package system

import (
	"image"
	"sync"
)

// GrayPool переиспользует промежуточные *image.Gray (маски, карты границ),
// чтобы не нагружать GC при повторных проходах детектора.
type GrayPool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = &GrayPool{
	pools: make(map[image.Rectangle]*sync.Pool),
}

// GetGray возвращает буфер нужного размера. Содержимое не обнуляется:
// вызывающий код обязан перезаписать каждый пиксель.
func GetGray(rect image.Rectangle) *image.Gray {
	return globalPool.Get(rect)
}

// PutGray возвращает буфер в пул.
func PutGray(img *image.Gray) {
	globalPool.Put(img)
}

func (p *GrayPool) Get(rect image.Rectangle) *image.Gray {
	p.mu.RLock()
	pool, exists := p.pools[rect]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[rect]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewGray(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.Gray)
}

func (p *GrayPool) Put(img *image.Gray) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
