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
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "msrapprox",
	Short: "Parallel piecewise linear approximation of a function on a triangulated rectangle",
	Long: `Approximates f(x,y) on [a,b]x[c,d] by its L2 projection onto piecewise linear
functions of an nx by ny grid whose cells are split into two triangles. The
sparse system is stored in MSR form and solved by p worker threads.

Parameters come from flags, a YAML input file (-I) or the 12 positional
arguments of the solve command:
	a b c d nx ny mx my k eps max_its p`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.msrapprox.yaml)")
	pf.StringP("inputConditionsFile", "I", "", "YAML file with the parameters, overrides flags and config")
	pf.Float64("a", -1, "left bound of the domain")
	pf.Float64("b", 1, "right bound of the domain")
	pf.Float64("c", -1, "lower bound of the domain")
	pf.Float64("d", 1, "upper bound of the domain")
	pf.Int("nx", 10, "number of cells in x")
	pf.Int("ny", 10, "number of cells in y")
	pf.Int("mx", 10, "visualization grid in x")
	pf.Int("my", 10, "visualization grid in y")
	pf.IntP("function", "k", 0, "test function 0-7: 1, x, y, x+y, sqrt(x^2+y^2), x^2+y^2, exp(x^2-y^2), 1/(25(x^2+y^2)+1)")
	pf.Float64("eps", 1.e-14, "relative residual tolerance")
	pf.Int("maxIts", 1000, "maximum number of iterations")
	pf.IntP("threads", "p", 1, "number of worker threads")
	pf.Int("restartStep", 0, "iterations between residual refreshes, 0 for the default")
	pf.BoolP("verbose", "v", false, "log progress and memory use")
	for _, name := range parameterKeys {
		if err := viper.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

var parameterKeys = []string{
	"a", "b", "c", "d", "nx", "ny", "mx", "my",
	"function", "eps", "maxIts", "threads", "restartStep", "verbose",
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".msrapprox" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".msrapprox")
	}

	viper.SetEnvPrefix("MSRAPPROX")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
