package pid

// Identity returns the first payload byte as the physical value. The
// second byte is ignored, which matches how every currently supported
// parameter except engine speed is read.
func Identity(a, _ byte) float64 {
	return float64(a)
}

// EngineRPM decodes the two-byte engine speed payload:
// ((A*256)+B)/4, per the OBD-II definition of PID 0C.
func EngineRPM(a, b byte) float64 {
	return (float64(a)*256 + float64(b)) / 4
}
