package model

// TroopType is the static catalogue entry for one unit type.  Codes are
// the stable identifiers used in API payloads (e.g. "t1_inf"); database IDs
// are internal.  Stats feed the combat resolver and the travel/carry math.
type TroopType struct {
	ID      uint64
	Code    string
	Name    string
	Tier    int
	Attack  int64
	Defense int64
	HP      int64
	Speed   int64 // rating, bigger = faster; 100 is the reference speed
	Carry   int64 // resource units one unit can haul
}
