package sqlforge

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatorCacheConcurrentGetOrValidateMatchesSingleThreaded(t *testing.T) {
	tmpl := "SELECT {{columns}} FROM {{table}} WHERE id = @id"
	nodes := mustParse(t, tmpl)

	want := ValidateTemplate(tmpl, nodes, false)

	cache := newValidatorCache(DefaultValidatorCacheSize, 0)
	const n = 64
	results := make([]ValidationResult, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = cache.getOrValidate(tmpl, SQLite, nodes, false)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		require.Equalf(t, want, got, "goroutine %d result diverged from single-threaded validation", i)
	}
}

func TestValidatorCacheConcurrentGetOrValidateDistinguishesStrict(t *testing.T) {
	tmpl := "{{columns --bogus foo}}"
	nodes := mustParse(t, tmpl)

	wantStrict := ValidateTemplate(tmpl, nodes, true)
	wantLoose := ValidateTemplate(tmpl, nodes, false)

	cache := newValidatorCache(DefaultValidatorCacheSize, 0)
	const n = 32
	strictResults := make([]ValidationResult, n)
	looseResults := make([]ValidationResult, n)
	var wg sync.WaitGroup
	wg.Add(2 * n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			strictResults[i] = cache.getOrValidate(tmpl, SQLite, nodes, true)
		}(i)
		go func(i int) {
			defer wg.Done()
			looseResults[i] = cache.getOrValidate(tmpl, SQLite, nodes, false)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.Equal(t, wantStrict, strictResults[i])
		require.Equal(t, wantLoose, looseResults[i])
	}
	require.NotEqual(t, wantStrict.IsValid, wantLoose.IsValid)
}
