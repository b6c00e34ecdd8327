/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ghodss/yaml"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/msrapprox/InputParameters"
	"github.com/notargets/msrapprox/display"
	"github.com/notargets/msrapprox/model_problems/Approx2D"
	"github.com/notargets/msrapprox/utils"
)

type SolveRun struct {
	Profile    bool
	Perf       bool
	Verbose    bool
	PlotFile   string
	PlotMode   string
	PlotWidth  int
	PlotHeight int
	ResultFile string
	MatrixFile string
}

// SolveCmd represents the solve command
var SolveCmd = &cobra.Command{
	Use:   "solve [" + positionalUsage + "]",
	Short: "Run one solve and print the report",
	Long: `Run one solve and print the two line report:
	Task = 6 R1 = ... R2 = ... R3 = ... R4 = ... T1 = ... T2 = ...
	It = ... E = ... K = ... Nx = ... Ny = ... P = ...`,
	Args: positionalArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ip, err := loadParameters(cmd, args)
		if err != nil {
			log.Fatalf("%s: %v", cmd.CommandPath(), err)
		}
		sr := &SolveRun{Verbose: viper.GetBool("verbose")}
		sr.Profile, _ = cmd.Flags().GetBool("profile")
		sr.Perf, _ = cmd.Flags().GetBool("perf")
		sr.PlotFile, _ = cmd.Flags().GetString("plotFile")
		sr.PlotMode, _ = cmd.Flags().GetString("mode")
		sr.PlotWidth, _ = cmd.Flags().GetInt("width")
		sr.PlotHeight, _ = cmd.Flags().GetInt("height")
		sr.ResultFile, _ = cmd.Flags().GetString("resultFile")
		sr.MatrixFile, _ = cmd.Flags().GetString("matrixFile")
		if sr.Profile {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		}
		if err = sr.Run(ip, cmd.OutOrStdout()); err != nil {
			log.Fatalf("%s: %v", cmd.CommandPath(), err)
		}
	},
}

func init() {
	rootCmd.AddCommand(SolveCmd)
	SolveCmd.Flags().Bool("profile", false, "write a CPU profile to the current directory")
	SolveCmd.Flags().Bool("perf", false, "count the CPU cycles of the solve with perf events (linux)")
	SolveCmd.Flags().StringP("plotFile", "o", "", "write a PNG of the selected display mode")
	SolveCmd.Flags().StringP("mode", "m", "approximation", "display mode for the plot: function, approximation or residual")
	SolveCmd.Flags().Int("width", 800, "plot width in pixels")
	SolveCmd.Flags().Int("height", 800, "plot height in pixels")
	SolveCmd.Flags().StringP("resultFile", "r", "", "write parameters, statistics and solution as YAML")
	SolveCmd.Flags().String("matrixFile", "", "write the assembled matrix in the binary CSR format of james-bowman/sparse")
}

// ResultFile is the document written by --resultFile.
type ResultFile struct {
	Parameters *InputParameters.ApproxParameters
	Result     *Approx2D.Result
}

func (sr *SolveRun) Run(ip *InputParameters.ApproxParameters, w io.Writer) (err error) {
	var (
		p   Approx2D.Parameters
		s   *Approx2D.Session
		res *Approx2D.Result
	)
	if p, err = ip.ToParameters(); err != nil {
		return
	}
	if sr.Verbose {
		ip.Print()
	}
	if s, err = Approx2D.NewSession(p); err != nil {
		return
	}
	defer s.Close()
	s.Verbose = sr.Verbose

	var cc *cycleCounter
	if sr.Perf {
		cc = newCycleCounter(p.Threads)
		s.Wrap = cc.wrap
	}
	res, err = s.Solve()
	if cc != nil {
		if cycles, perr := cc.total(); perr == nil {
			fmt.Fprintf(w, "CPU cycles = %d\n", cycles)
		} else {
			log.Printf("perf: %v", perr)
		}
	}
	if res != nil {
		fmt.Fprint(w, res.Report())
	}
	if err != nil {
		return
	}
	if sr.Verbose {
		log.Printf("%s, %s", res.Outcome, utils.GetMemUsage())
	}
	if sr.PlotFile != "" {
		if err = sr.plot(s, ip); err != nil {
			return
		}
	}
	if sr.MatrixFile != "" {
		if err = sr.writeMatrix(s); err != nil {
			return
		}
	}
	if sr.ResultFile != "" {
		if res.X, err = s.Solution(); err != nil {
			return
		}
		var data []byte
		if data, err = yaml.Marshal(&ResultFile{Parameters: ip, Result: res}); err != nil {
			return
		}
		if err = os.WriteFile(sr.ResultFile, data, 0644); err != nil {
			return
		}
	}
	return
}

func (sr *SolveRun) plot(s *Approx2D.Session, ip *InputParameters.ApproxParameters) (err error) {
	var (
		v    *display.View
		fd   *display.Field
		x    []float64
		tf   Approx2D.TestFunction
		file *os.File
	)
	if v, err = display.NewView(ip.A, ip.B, ip.C, ip.D, ip.Mx, ip.My); err != nil {
		return
	}
	if v.Mode, err = display.ParseMode(sr.PlotMode); err != nil {
		return
	}
	if tf, err = Approx2D.SelectFunction(ip.Function); err != nil {
		return
	}
	if x, err = s.Solution(); err != nil {
		return
	}
	if fd, err = v.Field(s.Grid(), x, tf.F); err != nil {
		return
	}
	if file, err = os.Create(sr.PlotFile); err != nil {
		return
	}
	defer file.Close()
	return fd.WritePNG(file, sr.PlotWidth, sr.PlotHeight)
}

// writeMatrix saves the assembled matrix as CSR, readable with
// sparse.CSR.UnmarshalBinaryFrom.
func (sr *SolveRun) writeMatrix(s *Approx2D.Session) (err error) {
	var (
		m    *utils.MSR
		file *os.File
	)
	if m, err = s.Matrix(); err != nil {
		return
	}
	if file, err = os.Create(sr.MatrixFile); err != nil {
		return
	}
	if _, err = m.ToCSR().MarshalBinaryTo(file); err != nil {
		file.Close()
		return
	}
	return file.Close()
}
