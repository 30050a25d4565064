package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[domain.InterestConfiguration](5 * time.Minute)

	snapshot := domain.InterestConfiguration{
		LoanRateDefault: decimal.NewFromFloat(1.5),
		TenorDefault:    12,
	}
	c.Set("interest", snapshot)

	got, ok := c.Get("interest")
	if !ok {
		t.Fatal("expected cached snapshot")
	}
	if !got.LoanRateDefault.Equal(snapshot.LoanRateDefault) {
		t.Errorf("expected rate %s, got %s", snapshot.LoanRateDefault, got.LoanRateDefault)
	}
	if got.TenorDefault != 12 {
		t.Errorf("expected tenor 12, got %d", got.TenorDefault)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	if _, ok := c.Get("nonexistent"); ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("key", "value")
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key", "value")
	c.Delete("key")

	if _, ok := c.Get("key"); ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := cache.New[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("shared", n)
				c.Get("shared")
			}
		}(i)
	}
	wg.Wait()

	if _, ok := c.Get("shared"); !ok {
		t.Fatal("expected shared key to survive concurrent writes")
	}
}
