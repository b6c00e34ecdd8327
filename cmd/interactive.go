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
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/msrapprox/InputParameters"
	"github.com/notargets/msrapprox/display"
	"github.com/notargets/msrapprox/model_problems/Approx2D"
	"github.com/notargets/msrapprox/types"
)

// InteractiveCmd represents the interactive command
var InteractiveCmd = &cobra.Command{
	Use:   "interactive [" + positionalUsage + "]",
	Short: "Solve, then change function, grid, tolerance and view from a command loop",
	Long:  "Solve, then change function, grid, tolerance and view from a command loop.\n" + interactiveHelp,
	Args:  positionalArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ip, err := loadParameters(cmd, args)
		if err != nil {
			log.Fatalf("%s: %v", cmd.CommandPath(), err)
		}
		if err = RunInteractive(ip, viper.GetBool("verbose"), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			log.Fatalf("%s: %v", cmd.CommandPath(), err)
		}
	},
}

func init() {
	rootCmd.AddCommand(InteractiveCmd)
}

const interactiveHelp = `Commands:
	0  next test function
	1  next display mode: function, approximation, residual
	2  zoom in
	3  reset zoom
	4  double the grid
	5  halve the grid
	6  multiply epsilon by 10
	7  divide epsilon by 10
	8  double the visualization grid
	9  halve the visualization grid
	w  wait for the running solve
	h  this help
	q  quit
`

type console struct {
	mu      sync.Mutex
	out     io.Writer
	s       *Approx2D.Session
	view    *display.View
	waiters sync.WaitGroup
}

func (c *console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// status is the session line followed by the view line and the value shown
// for the current mode.
func (c *console) status() string {
	var (
		p      = c.s.Parameters()
		tf, _  = Approx2D.SelectFunction(p.Function)
		x, err = c.s.Solution()
		max    float64
	)
	c.mu.Lock()
	view := *c.view
	c.mu.Unlock()
	line := c.s.Info() + " | " + view.Info()
	if err != nil {
		return line
	}
	if max, err = display.MaxValue(view.Mode, c.s.Grid(), x, tf.F); err != nil {
		return line
	}
	return fmt.Sprintf("%s | Max: %e", line, max)
}

// start launches a solve and prints its report when it finishes.
func (c *console) start() {
	if err := c.s.Start(); err != nil {
		c.printf("%v\n", err)
		return
	}
	c.waiters.Add(1)
	go func() {
		defer c.waiters.Done()
		res, err := c.s.Wait()
		if res != nil {
			c.printf("%s", res.Report())
		}
		if err != nil {
			c.printf("solve failed: %v\n", err)
		}
		c.printf("%s\n", c.status())
	}()
}

// restart applies fn and starts a new solve, unless a solve is running.
func (c *console) restart(fn func() error) {
	if c.s.Running() {
		c.printf("%v, command ignored\n", types.ErrSolveInProgress)
		return
	}
	if err := fn(); err != nil {
		c.printf("%v\n", err)
		return
	}
	c.start()
}

func (c *console) viewChange(fn func(v *display.View) error) {
	c.mu.Lock()
	err := fn(c.view)
	c.mu.Unlock()
	if err != nil {
		c.printf("%v\n", err)
		return
	}
	c.printf("%s\n", c.status())
}

// RunInteractive solves with ip, then reads one command per line from in
// until q or end of input. Reports and status lines go to out.
func RunInteractive(ip *InputParameters.ApproxParameters, verbose bool, in io.Reader, out io.Writer) (err error) {
	var (
		p Approx2D.Parameters
		c = &console{out: out}
	)
	if p, err = ip.ToParameters(); err != nil {
		return
	}
	if c.s, err = Approx2D.NewSession(p); err != nil {
		return
	}
	c.s.Verbose = verbose
	if c.view, err = display.NewView(ip.A, ip.B, ip.C, ip.D, ip.Mx, ip.My); err != nil {
		return
	}
	defer func() {
		c.s.Close()
		c.waiters.Wait()
	}()
	c.start()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		switch cmd := strings.TrimSpace(scanner.Text()); cmd {
		case "":
		case "0":
			c.restart(c.s.NextFunction)
		case "1":
			c.viewChange(func(v *display.View) error { v.Mode = v.Mode.Next(); return nil })
		case "2":
			c.viewChange(func(v *display.View) error { return v.ZoomIn() })
		case "3":
			c.viewChange(func(v *display.View) error { v.ResetZoom(); return nil })
		case "4":
			c.restart(c.s.DoubleGrid)
		case "5":
			c.restart(c.s.HalveGrid)
		case "6":
			c.restart(func() error { return c.s.ScaleEpsilon(10) })
		case "7":
			c.restart(func() error { return c.s.ScaleEpsilon(0.1) })
		case "8":
			c.viewChange(func(v *display.View) error { return v.DoubleDetail() })
		case "9":
			c.viewChange(func(v *display.View) error { return v.HalveDetail() })
		case "w":
			c.waiters.Wait()
		case "h":
			c.printf("%s", interactiveHelp)
		case "q":
			return
		default:
			c.printf("unknown command %q, h for help\n", cmd)
		}
	}
	return scanner.Err()
}
