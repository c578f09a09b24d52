/*pynbody is a command line tool for inspecting and profiling particle
snapshots. Run "pynbody help" for usage.*/
package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/Martin-Rey/pynbody/lib/analyze"
	"github.com/Martin-Rey/pynbody/lib/config"
	p_error "github.com/Martin-Rey/pynbody/lib/error"
	"github.com/Martin-Rey/pynbody/lib/format"
	"github.com/Martin-Rey/pynbody/lib/particles"
	"github.com/Martin-Rey/pynbody/lib/snapio"
)

const helpText = `pynbody <mode> <config file> <file format>

Modes:
  help     Print this message.
  info     Print the header and particle families of a snapshot.
  profile  Print the spherically averaged density and circular velocity
           profiles around the box center.

<config file> is an ini-style file setting the [core] variables Threads,
LeafSize, DefaultKernel, SmoothParticles, and CacheDir, or "-" for the
defaults.

<file format> names the snapshot's files. Multi-file snapshots use a
{verb,rule} variable, e.g. "snapdir_004/snap_004.{%d,0..7}". Gadget-2
files are detected from their headers; anything else is read as a text
table with the columns x y z vx vy vz mass.`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(helpText)
		return
	}

	switch mode := os.Args[1]; mode {
	case "help":
		fmt.Println(helpText)
	case "info":
		Info(os.Args[2:])
	case "profile":
		Profile(os.Args[2:])
	default:
		p_error.External("You attempted to run pynbody in the mode '%s', "+
			"but the only valid modes are 'help', 'info', and 'profile'.",
			mode)
	}
}

// parseArgs reads the configuration and opens the snapshot's files.
func parseArgs(mode string, args []string) (config.Config, []snapio.File) {
	if len(args) != 2 {
		p_error.External("The '%s' mode takes a config file and a file "+
			"format, but %d arguments were given. Run 'pynbody help' "+
			"for usage.", mode, len(args))
	}

	cfg := config.DefaultConfig()
	if args[0] != "-" {
		var err error
		cfg, err = config.Read(args[0])
		if err != nil { p_error.External("%s", err.Error()) }
	}

	fileNames, err := format.ExpandFileFormat(args[1])
	if err != nil { p_error.External("%s", err.Error()) }

	files := make([]snapio.File, len(fileNames))
	for i := range fileNames {
		files[i], err = openFile(fileNames[i])
		if err != nil { p_error.External("%s", err.Error()) }
	}
	return cfg, files
}

// openFile opens a snapshot file, trying the Gadget-2 variants before
// falling back to a text table.
func openFile(name string) (snapio.File, error) {
	names := []string{"x", "v", "id"}
	attempts := [][]string{
		{"v32", "v32", "u32"},
		{"v32", "v32", "u64"},
	}

	var gadgetErr error
	for _, types := range attempts {
		f, err := snapio.NewGadget2Cosmological(
			name, names, types, binary.LittleEndian)
		if err == nil { return f, nil }
		gadgetErr = err
	}

	f, textErr := snapio.NewText(name)
	if textErr == nil { return f, nil }

	return nil, fmt.Errorf("Could not open %s as a Gadget-2 file (%s) "+
		"or as a text table (%s).",
		name, gadgetErr.Error(), textErr.Error())
}

var familyNames = map[particles.Family]string{
	particles.Gas:        "gas",
	particles.DarkMatter: "dark matter",
	particles.Star:       "star",
}

// Info prints the header and family breakdown of a snapshot.
func Info(args []string) {
	cfg, files := parseArgs("info", args)

	snap, err := snapio.Load(files, cfg)
	if err != nil { p_error.External("%s", err.Error()) }

	hd := files[0].Header()
	cosmo := snap.Cosmology()

	fmt.Printf("files:      %d\n", len(files))
	fmt.Printf("particles:  %d\n", snap.Len())
	fmt.Printf("z:          %.4f\n", cosmo.Z)
	fmt.Printf("Omega_M:    %.4f\n", cosmo.OmegaM)
	fmt.Printf("Omega_L:    %.4f\n", cosmo.OmegaL)
	fmt.Printf("h100:       %.4f\n", cosmo.H100)
	fmt.Printf("box:        %.4f\n", cosmo.BoxSize)
	fmt.Printf("blocks:     %v\n", hd.Names)
	fmt.Printf("arrays:     %v\n", snap.Store().Names())
	for _, fam := range snap.Families() {
		n := len(snap.Store().FamilyIndex(fam))
		fmt.Printf("%-11s %d\n", familyNames[fam]+":", n)
	}
}

// Profile prints density and circular velocity profiles around the box
// center.
func Profile(args []string) {
	cfg, files := parseArgs("profile", args)

	snap, err := snapio.Load(files, cfg)
	if err != nil { p_error.External("%s", err.Error()) }

	L := snap.Cosmology().BoxSize
	if L <= 0 {
		p_error.External("The snapshot is not periodic, so the 'profile' " +
			"mode has no center to profile around.")
	}

	rMax := L / 2
	bins, err := analyze.NewLogBins(rMax*1e-3, rMax, 40)
	if err != nil { p_error.Internal("%s", err.Error()) }

	center := [3]float64{L / 2, L / 2, L / 2}
	sel := snap.FamilyView(particles.DarkMatter)
	p, err := analyze.RadialProfile(sel, center, bins)
	if err != nil { p_error.External("%s", err.Error()) }

	fmt.Println("# 0 - R (kpc)")
	fmt.Println("# 1 - N")
	fmt.Println("# 2 - rho (Msol kpc^-3)")
	fmt.Println("# 3 - M(<R) (Msol)")
	fmt.Println("# 4 - Vcirc (km/s)")
	for i := range p.R {
		fmt.Printf("%9.4g %9d %9.4g %9.4g %9.4g\n",
			p.R[i], p.N[i], p.Rho[i], p.EnclosedMass[i], p.Vcirc[i])
	}
}
