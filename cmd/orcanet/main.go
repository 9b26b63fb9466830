// Command orcanet loads a model file, assembles the network it describes and
// prints a styled report of the result: per-layer shapes and parameter
// counts, the resolved training plan and, when given a run file, the resolved
// run configuration. It is the dry-run counterpart of a training launch, it
// catches configuration mistakes without touching any data.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/muesli/termenv"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"k8s.io/klog/v2"

	"github.com/orcanet/orcanet/config"
	"github.com/orcanet/orcanet/graph"
	"github.com/orcanet/orcanet/ml/assembler"
	"github.com/orcanet/orcanet/ml/compile"
	"github.com/orcanet/orcanet/runconfig"
	"github.com/orcanet/orcanet/types/shapes"
)

var (
	flagBins = flag.String("bins", "11,13,18,50", "Comma-separated number of bins per dimension (x,y,z,t) "+
		"of the input data. Singleton dimensions are dropped when building the network input shape.")
	flagName = flag.String("name", "", "Model name for the report. Defaults to a name derived from "+
		"the architecture and the input bins.")
	flagRun  = flag.String("run", "", "Run file with a [config] section to resolve and report.")
	flagList = flag.String("list", "", "List file with train and validation file paths to validate.")

	flagLayers  = flag.Bool("layers", true, "Report every layer with its output shape and parameter count.")
	flagCompile = flag.Bool("compile", true, "Report the resolved optimizer and loss wiring.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		klog.Errorf("Missing model file to read from. See 'orcanet -help'.")
		os.Exit(1)
	}
	if len(args) > 1 {
		klog.Errorf("Too many arguments. See 'orcanet -help'.")
		os.Exit(1)
	}

	lipgloss.SetColorProfile(termenv.ColorProfile())
	report(args[0])
}

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

func newPlainTable(withHeader bool) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if withHeader && row == 1 {
				s = headerRowStyle
				return
			}
			switch {
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			if col == 0 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		})
}

func parseBins(text string) []int {
	parts := strings.Split(text, ",")
	bins := make([]int, 0, len(parts))
	for _, part := range parts {
		bins = append(bins, must.M1(strconv.Atoi(strings.TrimSpace(part))))
	}
	return bins
}

func report(modelPath string) {
	model := must.M1(config.LoadModel(modelPath))

	nBins := parseBins(*flagBins)
	inputShape := shapes.FromBins(dtypes.Float32, nBins)
	name := *flagName
	if name == "" {
		name = assembler.ModelName(model.Body.Architecture, [][]int{nBins}, "", "")
	}

	g := must.M1(assembler.AssembleModel(name, inputShape, model))

	fmt.Println(titleStyle.Render("Summary"))
	table := newPlainTable(false)
	table.Row("model file", modelPath)
	table.Row("model name", g.Name())
	table.Row("architecture", model.Body.Architecture)
	table.Row("input shape", inputShape.String())
	table.Row("# body blocks", humanize.Comma(int64(len(model.Body.Blocks))))
	table.Row("# head blocks", humanize.Comma(int64(len(model.Head.Blocks))))
	table.Row("# layers", humanize.Comma(int64(g.NumNodes())))
	table.Row("# parameters", humanize.Comma(g.NumParameters()))
	table.Row("outputs", strings.Join(g.OutputNames(), ", "))
	fmt.Println(table.Render())

	if *flagLayers {
		reportLayers(g)
	}
	if *flagCompile {
		reportCompile(model, g)
	}
	if *flagRun != "" {
		reportRun(*flagRun)
	}
	if *flagList != "" {
		reportList(*flagList)
	}
}

func reportLayers(g *graph.Graph) {
	fmt.Println(titleStyle.Render("Layers"))
	table := newPlainTable(true)
	table.Row("Layer", "Op", "Output Shape", "Params")
	g.EnumerateNodes(func(n *graph.Node) {
		params := ""
		if n.NumParameters() > 0 {
			params = humanize.Comma(n.NumParameters())
		}
		table.Row(n.Name(), n.OpType(), n.Shape().String(), params)
	})
	fmt.Println(table.Render())
}

func reportCompile(model *config.ModelFile, g *graph.Graph) {
	spec := must.M1(compile.Resolve(model.Compile, g))

	fmt.Println(titleStyle.Render("Compile"))
	table := newPlainTable(true)
	table.Row("Setting", "Value")
	table.Row("optimizer", spec.Optimizer.Name)
	for _, key := range sortedKeys(spec.Optimizer.Kwargs) {
		table.Row("  "+key, fmt.Sprintf("%v", spec.Optimizer.Kwargs[key]))
	}
	for _, name := range g.OutputNames() {
		loss := spec.Losses[name]
		value := fmt.Sprintf("%s (weight %g)", loss.Function, loss.Weight)
		if len(loss.Metrics) > 0 {
			value += ", metrics: " + strings.Join(loss.Metrics, ", ")
		}
		table.Row("loss "+name, value)
	}
	fmt.Println(table.Render())
}

func reportRun(runPath string) {
	raw := must.M1(config.LoadRun(runPath))
	cfg := must.M1(runconfig.Resolve(raw))

	fmt.Println(titleStyle.Render("Run Configuration"))
	table := newPlainTable(true)
	table.Row("Option", "Value")
	table.Row("batchsize", humanize.Comma(int64(cfg.BatchSize)))
	table.Row("learning_rate", learningRateString(cfg.LearningRate))
	table.Row("epochs_to_train", strconv.Itoa(cfg.EpochsToTrain))
	table.Row("zero_center_folder", cfg.ZeroCenterFolder)
	table.Row("use_scratch_ssd", strconv.FormatBool(cfg.UseScratchSSD))
	table.Row("shuffle", strconv.FormatBool(cfg.Shuffle))
	table.Row("n_gpu", fmt.Sprintf("%d (%s)", cfg.NGPU.Count, cfg.NGPU.Mode))
	table.Row("train_logger_display", strconv.Itoa(cfg.TrainLoggerDisplay))
	table.Row("train_logger_flush", strconv.Itoa(cfg.TrainLoggerFlush))
	table.Row("validate_interval", strconv.Itoa(cfg.ValidateInterval))
	table.Row("verbose", strconv.Itoa(cfg.Verbose))
	fmt.Println(table.Render())
}

func reportList(listPath string) {
	list := must.M1(config.LoadList(listPath))

	fmt.Println(titleStyle.Render("File List"))
	table := newPlainTable(true)
	table.Row("Input", "Train Files", "Validation Files")
	for _, input := range list.Inputs() {
		table.Row(input,
			humanize.Comma(int64(len(list.TrainFiles[input]))),
			humanize.Comma(int64(len(list.ValidationFiles[input]))))
	}
	fmt.Println(table.Render())
}

func learningRateString(lr runconfig.LearningRate) string {
	if lr.IsSchedule() {
		return lr.Schedule
	}
	if lr.Decay != 0 {
		return fmt.Sprintf("%g (decay %g)", lr.Initial, lr.Decay)
	}
	return fmt.Sprintf("%g", lr.Initial)
}

func sortedKeys(m map[string]any) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
