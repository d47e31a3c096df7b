// Package value implements Nilan's runtime value representation together
// with the object heap and the open-addressed hash table used both for
// string interning and as the VM's global-variable environment.
package value

// FNV-1a 32-bit hash. Basis and prime are the canonical constants;
// precomputed once per string object and never recomputed.
const (
	fnvOffsetBasis uint32 = 0x811C9DC5
	fnvPrime       uint32 = 0x01000193
)

// HashString computes the FNV-1a hash of s.
func HashString(s string) uint32 {
	h := fnvOffsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
