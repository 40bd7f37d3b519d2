package compute

// MaxN is the largest input accepted by CountPrimes' callers. The bound keeps
// the worst-case trial-division loop to a few hundred milliseconds.
const MaxN = 100000

// CountPrimes returns how many integers in [2, n] are prime, by trial
// division: each candidate is tested for divisors up to and including the
// floor of its square root. n < 2 yields 0.
//
// The loop runs synchronously on the caller's goroutine with no yielding;
// callers are expected to have validated n against MaxN.
func CountPrimes(n int) int {
	if n < 2 {
		return 0
	}
	count := 0
	for num := 2; num <= n; num++ {
		if isPrime(num) {
			count++
		}
	}
	return count
}

func isPrime(num int) bool {
	for i := 2; i*i <= num; i++ {
		if num%i == 0 {
			return false
		}
	}
	return true
}
