package lnqm

// UIDField is the name of the text field holding each sample's identifier.
const UIDField = "uid"

// DefaultSchema returns the LnQM field set. All values are in atomic units
// unless the field's Unit says otherwise.
func DefaultSchema() *Schema {
	f64 := func(name, unit, desc string) Field {
		return Numeric(name, ElemFloat64).WithUnit(unit).WithDescription(desc)
	}
	i64 := func(name, desc string) Field {
		return Numeric(name, ElemInt64).WithDescription(desc)
	}
	xyz := func(name, unit, desc string) Field {
		return f64(name, unit, desc).WithStride(3)
	}

	return MustSchema(
		// General
		Text(UIDField).WithDescription("Unique identifier for the calculation"),
		f64("time_singlepoint", "s", "Time taken for the singlepoint calculation"),
		f64("time_geoopt", "s", "Time taken for the geometry optimization"),

		// Geometry
		i64("numbers", "Atomic numbers"),
		xyz("coord", "Bohr", "Optimized geometry"),
		xyz("gradient", "Eh/Bohr", "Gradient of the optimized geometry"),
		xyz("trajectory", "Bohr", "Atomic positions during optimization"),
		f64("trajectory_energies", "Eh", "Energies along the optimization trajectory"),
		f64("trajectory_etot", "Eh", "Energies without dispersion correction along the optimization trajectory"),
		xyz("trajectory_gradients", "Eh/Bohr", "Gradients along the optimization trajectory"),
		f64("cn", "", "Coordination numbers from D4"),

		// Energies
		f64("energy", "Eh", "Total single point energy"),
		f64("energy_geoopt", "Eh", "Energy after geometry optimization"),
		f64("etot_geoopt", "Eh", "Energy after geometry optimization without dispersion correction"),
		f64("ex", "Eh", "Exchange energy"),
		f64("ec", "Eh", "Correlation energy"),
		f64("exc", "Eh", "Exchange-correlation energy"),
		f64("ecnl", "Eh", "Non-local correlation energy"),
		f64("eemb", "Eh", "Embedding correction energy"),
		f64("homo_spin_up", "Eh", "HOMO energy, spin-up electrons"),
		f64("lumo_spin_up", "Eh", "LUMO energy, spin-up electrons"),
		f64("homo_spin_down", "Eh", "HOMO energy, spin-down electrons"),
		f64("lumo_spin_down", "Eh", "LUMO energy, spin-down electrons"),
		f64("orbital_energies_spin_up", "Eh", "Orbital energies, spin-up electrons"),
		f64("orbital_energies_spin_down", "Eh", "Orbital energies, spin-down electrons"),

		// Electronic
		i64("charge", "Total charge of the molecule"),
		i64("unpaired_e", "Number of unpaired electrons"),
		i64("nel_alpha", "Number of alpha electrons"),
		i64("nel_beta", "Number of beta electrons"),
		i64("nel", "Total number of electrons"),
		f64("polarizabilities", "", "Polarizabilities from D4"),
		f64("eeq", "e", "EEQ charges"),
		f64("ceh", "e", "CEH charges"),
		f64("q_gfn2", "e", "GFN2 charges"),

		// Populations and bonds
		f64("mayer_pop", "", "Mayer population analysis: NA ZA QA VA BVA FA per atom").WithStride(6),
		f64("mayer_bo", "", "Mayer bond orders: atom A, atom B, bond order").WithStride(3),
		f64("loewdin_charges", "e", "Loewdin atomic charges"),
		f64("loewdin_spins", "", "Loewdin spin populations"),
		f64("mulliken_charges", "e", "Mulliken atomic charges"),
		f64("mulliken_spins", "", "Mulliken spin populations"),
		f64("hirshfeld_charges", "e", "Hirshfeld atomic charges"),
		f64("hirshfeld_spins", "", "Hirshfeld spin populations"),
		f64("hirshfeld_alpha", "", "Hirshfeld total integrated alpha density"),
		f64("hirshfeld_beta", "", "Hirshfeld total integrated beta density"),

		// Molecular
		// Per-molecule vectors are stored flat: three values per sample with
		// stride 1, the layout produced by concatenating 1-D tensors.
		f64("rot_const", "MHz", "Rotational constants, three flat values per sample"),
		f64("rot_dipole", "a.u.", "Dipole components along the rotational axes, three flat values per sample"),
		f64("dipole", "a.u.", "Magnitude of the dipole moment"),
		f64("dipole_ele", "a.u.", "Electronic contribution to the dipole moment, x y z stored flat"),
		f64("dipole_nuc", "a.u.", "Nuclear contribution to the dipole moment, x y z stored flat"),
		f64("dipole_tot", "a.u.", "Total dipole moment, x y z stored flat"),
	)
}
