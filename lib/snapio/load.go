package snapio

import (
	"fmt"
	"log"
	"sync"

	"github.com/Martin-Rey/pynbody/lib/config"
	"github.com/Martin-Rey/pynbody/lib/derive"
	"github.com/Martin-Rey/pynbody/lib/particles"
	"github.com/Martin-Rey/pynbody/lib/snapshot"
	"github.com/Martin-Rey/pynbody/lib/thread"
	"github.com/Martin-Rey/pynbody/lib/units"
)

// blockSpec gives the array name and unit a file block is stored under.
type blockSpec struct {
	field string
	unit  units.Unit
}

// blockSpecFor maps conventional block names onto snapshot array names
// and units. Cosmological files use Gadget-2 conventions: positions are
// comoving kpc/h, velocities carry the sqrt(a) of Gadget's internal
// convention, and masses are 1e10 Msol/h. Headers with Physical set use
// plain kpc, km/s, and Msol instead. Unrecognized blocks keep their name
// and get no unit.
func blockSpecFor(name string, hd *Header) blockSpec {
	if hd.Physical {
		switch name {
		case "x":
			return blockSpec{derive.PosName, units.Kpc}
		case "v":
			return blockSpec{snapshot.VelName, units.VelocityKms}
		case "m":
			return blockSpec{snapshot.MassName, units.Msol}
		}
	}

	switch name {
	case "x":
		return blockSpec{
			derive.PosName, units.A.Mul(units.Kpc).Div(units.H)}
	case "v":
		half := units.NewRational(1, 2)
		return blockSpec{
			snapshot.VelName,
			units.VelocityKms.Mul(units.A.PowRational(half))}
	case "m":
		u := units.Msol.Div(units.H)
		u.Scale *= 1e10
		return blockSpec{snapshot.MassName, u}
	case "id":
		return blockSpec{"iord", units.Dimensionless}
	case "phi":
		return blockSpec{"phi", units.VelocityKms.PowInt(2)}
	case "acc":
		return blockSpec{"acc", units.Dimensionless}
	default:
		return blockSpec{name, units.Dimensionless}
	}
}

// Load reads every block of every file into a single Snapshot. Files are
// read concurrently on cfg.Threads workers; each file's rows land at its
// offset in the merged arrays, so the particle order is the file order.
//
// The family partition is taken from the headers' per-type counts, with
// Gadget-2 types 1, 2, 3, and 5 all treated as dark matter. If the files
// have no mass block, a uniform mass array is synthesized from the header.
func Load(files []File, cfg config.Config) (*snapshot.Snapshot, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("No snapshot files were given.")
	}

	hd0 := files[0].Header()
	offsets, n, err := fileOffsets(files)
	if err != nil { return nil, err }

	if hd0.NTot > 0 && int64(n) != hd0.NTot {
		log.Printf("snapio: loading %d particles out of the snapshot's "+
			"%d; quantities that see the whole box, like phi, will be "+
			"affected", n, hd0.NTot)
	}

	// Every worker owns one reusable Buffer and pulls file indices off
	// the channel until it closes.
	fields := make([][]particles.Field, len(files))
	workers := thread.Workers(cfg.Threads)
	jobs := make(chan int, len(files))
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()

			buf, err := NewBuffer(hd0)
			if err != nil {
				errs[w] = err
				return
			}

			for i := range jobs {
				if errs[w] != nil { continue }
				buf.Reset()
				fields[i], errs[w] = readFile(files[i], buf)
			}
		}(w)
	}
	for i := range files { jobs <- i }
	close(jobs)
	wg.Wait()

	for w := range errs {
		if errs[w] != nil { return nil, errs[w] }
	}

	store, err := particles.NewStore(n, familyIndex(files, offsets, n))
	if err != nil { return nil, err }

	for j := range hd0.Names {
		parts := make([]particles.Field, len(files))
		for i := range files { parts[i] = fields[i][j] }

		merged, err := mergeFields(parts, offsets, n)
		if err != nil { return nil, err }
		if err := store.Set(merged); err != nil { return nil, err }
	}

	if !store.Has(snapshot.MassName) {
		if err := synthesizeMasses(store, hd0, n); err != nil {
			return nil, err
		}
	}

	cosmo := snapshot.Cosmology{
		Z: hd0.Z, OmegaM: hd0.OmegaM, OmegaL: hd0.OmegaL,
		H100: hd0.H100, BoxSize: hd0.L,
	}
	return snapshot.New(store, cosmo, cfg)
}

// fileOffsets checks that the files agree on their block layout and
// returns the starting row of each file in the merged arrays.
func fileOffsets(files []File) (offsets []int, n int, err error) {
	hd0 := files[0].Header()
	offsets = make([]int, len(files))

	for i := range files {
		hd := files[i].Header()
		if len(hd.Names) != len(hd0.Names) {
			return nil, 0, fmt.Errorf("The snapshot files don't agree "+
				"on their blocks: file 0 has %s, file %d has %s.",
				hd0.Names, i, hd.Names)
		}
		for j := range hd.Names {
			if hd.Names[j] != hd0.Names[j] || hd.Types[j] != hd0.Types[j] {
				return nil, 0, fmt.Errorf("The snapshot files don't "+
					"agree on their blocks: file 0 has %s with types %s, "+
					"file %d has %s with types %s.", hd0.Names, hd0.Types,
					i, hd.Names, hd.Types)
			}
		}

		offsets[i] = n
		n += hd.N()
	}
	if n == 0 {
		return nil, 0, fmt.Errorf("The snapshot files contain no " +
			"particles.")
	}
	return offsets, n, nil
}

func readFile(f File, buf *Buffer) ([]particles.Field, error) {
	hd := f.Header()
	out := make([]particles.Field, len(hd.Names))
	for j, name := range hd.Names {
		if err := f.Read(name, buf); err != nil { return nil, err }

		spec := blockSpecFor(name, hd)
		fld, err := buf.Field(name, spec.field, spec.unit)
		if err != nil { return nil, err }
		out[j] = fld
	}
	return out, nil
}

// mergeFields concatenates the per-file pieces of one block into a single
// field of length n.
func mergeFields(
	parts []particles.Field, offsets []int, n int,
) (particles.Field, error) {
	dest := particles.Fields{}
	parts[0].CreateDestination(dest, n)

	for i := range parts {
		m := parts[i].Len()
		from, to := make([]int, m), make([]int, m)
		for j := 0; j < m; j++ {
			from[j], to[j] = j, offsets[i]+j
		}
		if err := parts[i].Transfer(dest, from, to); err != nil {
			return nil, err
		}
	}
	return dest[parts[0].Name()], nil
}

// familyIndex builds the family partition of the merged arrays from the
// per-type counts of each file. Blocks store particles in type order.
func familyIndex(files []File, offsets []int, n int) map[particles.Family][]int {
	out := map[particles.Family][]int{}

	for i := range files {
		hd, row := files[i].Header(), offsets[i]
		for typ := 0; typ < nGadgetTypes; typ++ {
			family := particles.DarkMatter
			switch typ {
			case gasType:
				family = particles.Gas
			case starType:
				family = particles.Star
			}

			for j := 0; j < hd.NPart[typ]; j++ {
				out[family] = append(out[family], row)
				row++
			}
		}
	}
	return out
}

// synthesizeMasses fills in a uniform mass array for mass-less file
// formats like LGadget-2, which store a single particle mass in their
// header.
func synthesizeMasses(store *particles.Store, hd *Header, n int) error {
	if hd.Mass == 0 {
		return fmt.Errorf("The snapshot files have no mass block and "+
			"their header doesn't give a uniform particle mass, so "+
			"'%s' cannot be populated.", snapshot.MassName)
	}

	m := make([]float64, n)
	for i := range m { m[i] = hd.Mass }
	unit := units.Msol.Div(units.H)
	return store.Set(particles.NewFloat64(snapshot.MassName, unit, m))
}
