package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/msrapprox/InputParameters"
	"github.com/notargets/msrapprox/types"
)

const positionalUsage = "a b c d nx ny mx my k eps max_its p"

var exampleFile = `
########################################
Title: "Runge function on the unit square"
A: -1
B: 1
C: -1
D: 1
Nx: 100
Ny: 100
Mx: 20
My: 20
Function: 7
Epsilon: 1.e-14
MaxIterations: 1000
Threads: 4
########################################
`

// loadParameters layers the parameter sources: flags, config file and
// environment through viper, then the input file, then positional arguments.
func loadParameters(cmd *cobra.Command, args []string) (ip *InputParameters.ApproxParameters, err error) {
	ip = &InputParameters.ApproxParameters{
		A:             viper.GetFloat64("a"),
		B:             viper.GetFloat64("b"),
		C:             viper.GetFloat64("c"),
		D:             viper.GetFloat64("d"),
		Nx:            viper.GetInt("nx"),
		Ny:            viper.GetInt("ny"),
		Mx:            viper.GetInt("mx"),
		My:            viper.GetInt("my"),
		Function:      viper.GetInt("function"),
		Epsilon:       viper.GetFloat64("eps"),
		MaxIterations: viper.GetInt("maxIts"),
		Threads:       viper.GetInt("threads"),
		RestartStep:   viper.GetInt("restartStep"),
	}
	var icFile string
	if icFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
		return
	}
	if icFile != "" {
		var data []byte
		if data, err = os.ReadFile(icFile); err != nil {
			return
		}
		if err = ip.Parse(data); err != nil {
			return nil, fmt.Errorf("reading %s: %w\nExample File:%s", icFile, err, exampleFile)
		}
	}
	if len(args) != 0 {
		if err = parsePositional(args, ip); err != nil {
			return
		}
	}
	if err = ip.Validate(); err != nil {
		return nil, err
	}
	return
}

func positionalArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 12 {
		return fmt.Errorf("%w: want no arguments or 12, have %d\nUsage: %s %s",
			types.ErrInvalidConfiguration, len(args), cmd.CommandPath(), positionalUsage)
	}
	return nil
}

// parsePositional reads "a b c d nx ny mx my k eps max_its p".
func parsePositional(args []string, ip *InputParameters.ApproxParameters) (err error) {
	var (
		floats = []*float64{&ip.A, &ip.B, &ip.C, &ip.D}
		ints   = []*int{&ip.Nx, &ip.Ny, &ip.Mx, &ip.My, &ip.Function}
		tail   = []*int{&ip.MaxIterations, &ip.Threads}
	)
	bad := func(n int, err error) error {
		return fmt.Errorf("%w: argument %d (%q) of %q: %v",
			types.ErrInvalidConfiguration, n+1, args[n], positionalUsage, err)
	}
	for n, fp := range floats {
		if *fp, err = cast.ToFloat64E(args[n]); err != nil {
			return bad(n, err)
		}
	}
	for n, ipt := range ints {
		if *ipt, err = cast.ToIntE(args[4+n]); err != nil {
			return bad(4+n, err)
		}
	}
	if ip.Epsilon, err = cast.ToFloat64E(args[9]); err != nil {
		return bad(9, err)
	}
	for n, ipt := range tail {
		if *ipt, err = cast.ToIntE(args[10+n]); err != nil {
			return bad(10+n, err)
		}
	}
	return
}
