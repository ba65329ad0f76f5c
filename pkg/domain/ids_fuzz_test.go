package domain

import (
	"testing"
)

// FuzzParseRecordID checks that parsing never panics and that every accepted
// id is positive and round-trips through its string form.
func FuzzParseRecordID(f *testing.F) {
	f.Add("")
	f.Add("0")
	f.Add("1")
	f.Add("18446744073709551615")
	f.Add("18446744073709551616")
	f.Add("'; DROP TABLE records;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseRecordID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatal("accepted the zero sentinel")
		}
		roundTrip, err := ParseRecordID(id.String())
		if err != nil {
			t.Fatalf("valid id failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Fatal("round-trip changed id value")
		}
	})
}

// FuzzParseIdentity checks that accepted identities are never the zero
// address and survive a round-trip through their checksummed form.
func FuzzParseIdentity(f *testing.F) {
	f.Add("0x52908400098527886e0f7030069857d2e4169ee7")
	f.Add("0x0000000000000000000000000000000000000000")
	f.Add("not-an-address")
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseIdentity(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatal("accepted the zero address")
		}
		roundTrip, err := ParseIdentity(id.String())
		if err != nil || roundTrip != id {
			t.Fatalf("identity failed round-trip: %v", err)
		}
	})
}
