package query

import "testing"

// BenchmarkParse measures parsing latency for queries of varying shape.
func BenchmarkParse(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"single", "ti:capacitor"},
		{"and", "ti:capacitor ab:dielectric cpc:H01G4/00"},
		{"or", "ti:capacitor OR ti:condenser OR ti:supercapacitor"},
		{"not", "ti:capacitor NOT ab:electrolytic"},
		{"xor_groups", "((ti:flux ti:capacitor) OR ab:displacement) XOR (cpc:F16C33/00 ti:bearing)"},
		{"wildcard", "cpc:H01G4/* OR cpc:H01G9/*"},
	}
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Parse(q.query); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
