package pid

// Catalog is the ordered table of parameter definitions. It is built
// once per run and read-only afterwards; accessors hand out copies.
type Catalog struct {
	defs []Definition
}

// NewCatalog builds a catalog from an explicit ordered list of
// definitions.
func NewCatalog(defs ...Definition) Catalog {
	c := Catalog{defs: make([]Definition, len(defs))}
	copy(c.defs, defs)
	return c
}

// Build returns the canonical catalog of supported parameters, in fixed
// slot order. Calling it any number of times yields identical catalogs.
// Zero-width entries are documented parameters not yet acquired; they
// never participate in a sweep.
func Build() Catalog {
	return NewCatalog(
		Definition{Code: 0x03, Name: "Fuel System Status", Width: 1, Type: Integer},
		Definition{Code: 0x04, Name: "Calculated Engine Load", Width: 1, Type: Integer, Min: 0, Max: 100, Unit: Percent},
		Definition{Code: 0x05, Name: "Engine Coolant Temperature", Width: 1, Type: Integer, Min: -40, Max: 215, Unit: Celsius},
		Definition{Code: 0x0A, Name: "Fuel Gauge Pressure", Width: 1, Type: Integer, Min: 0, Max: 765, Unit: Pascals},
		Definition{Code: 0x0B, Name: "Intake Manifold Absolute Pressure", Width: 1, Type: Integer, Min: 0, Max: 255, Unit: Pascals},
		Definition{Code: 0x0C, Name: "Engine Speed", Width: 2, Type: Real, Min: 0, Max: 16383.75, Unit: RPM, Rule: DecodeRPM},
		Definition{Code: 0x0D, Name: "Vehicle Speed", Width: 1, Type: Integer, Min: 0, Max: 255, Unit: KilometersPerHour},

		// Placeholders for parameters on the roadmap.
		Definition{Code: 0x0F, Name: "Intake Air Temperature", Type: Integer, Min: -40, Max: 215, Unit: Celsius},
		Definition{Code: 0x5C, Name: "Engine Oil Temperature", Type: Integer, Min: -40, Max: 215, Unit: Celsius},
	)
}

// Active returns the queryable definitions in ascending slot order.
// The result is a fresh slice on every call.
func (c Catalog) Active() []Definition {
	out := make([]Definition, 0, len(c.defs))
	for _, d := range c.defs {
		if d.Active() {
			out = append(out, d)
		}
	}
	return out
}

// All returns every slot, placeholders included.
func (c Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}
