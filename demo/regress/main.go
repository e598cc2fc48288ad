// Command regress trains a recurrent regression model on
// a stereo sequence container, with the learning rate
// adapted per epoch by a control strategy.
package main

import (
	"flag"
	"log"

	"github.com/tran-khoa/returnn"
	"github.com/tran-khoa/returnn/lrcontrol"
	"github.com/tran-khoa/returnn/stereods"
	"github.com/unixpickle/anydiff/anyseq"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anyrnn"
	"github.com/unixpickle/anynet/anys2s"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/rip"
)

func main() {
	var (
		dataPath  = flag.String("data", "", "container or .bundle manifest with training sequences")
		normPath  = flag.String("norm", "", "optional normalization container")
		tau       = flag.Int("tau", 0, "context stacking radius (0 disables stacking)")
		hidden    = flag.Int("hidden", 128, "LSTM state size")
		batchSize = flag.Int("batch", 8, "sequences per mini-batch")
		strategy  = flag.String("lrc", "newbob", "learning rate control strategy")
		initRate  = flag.Float64("lr", 0.001, "initial learning rate")
		lrFile    = flag.String("lrfile", "learning_rates", "persisted learning rate log")
	)
	flag.Parse()
	if *dataPath == "" {
		essentials.Die("missing required -data flag (see -help)")
	}

	log.Println("Setting up...")
	creator := anyvec32.CurrentCreator()

	opts := &stereods.Options{NormPath: *normPath, Logger: log.Default()}
	var dataset *stereods.Dataset
	if *tau > 0 {
		tc, err := stereods.NewTimeContextDataset(*dataPath, *tau, opts)
		if err != nil {
			essentials.Die(err)
		}
		dataset = tc.Dataset
	} else {
		var err error
		dataset, err = stereods.NewDataset(*dataPath, opts)
		if err != nil {
			essentials.Die(err)
		}
	}
	defer dataset.Close()

	outDim, err := dataset.DataDim("classes")
	if err != nil {
		essentials.Die(err)
	}
	log.Printf("dataset: %d sequences, %d -> %d features",
		dataset.SeqCount(), dataset.InputDim(), outDim)

	block := anyrnn.Stack{
		anyrnn.NewLSTM(creator, dataset.InputDim(), *hidden),
		&anyrnn.LayerBlock{Layer: anynet.NewFC(creator, *hidden, outDim)},
	}
	trainer := &anys2s.Trainer{
		Func: func(s anyseq.Seq) anyseq.Seq {
			return anyrnn.Map(s, block)
		},
		Cost:    anynet.MSE{},
		Params:  anynet.AllParameters(block),
		Average: true,
	}

	controller, err := lrcontrol.FromConfig(&lrcontrol.Config{
		Strategy:     *strategy,
		LearningRate: *initRate,
		ErrorMeasure: "train_score",
		Filename:     *lrFile,
		Logger:       log.Default(),
	})
	if err != nil {
		essentials.Die(err)
	}

	samples := returnn.NewSampleList(dataset, creator)

	var sgd *anysgd.SGD
	var lastEpoch int
	var costSum float64
	var costCount int
	sgd = &anysgd.SGD{
		Fetcher:     trainer,
		Gradienter:  trainer,
		Transformer: &anysgd.Adam{},
		Samples:     samples,
		Rater:       &lrcontrol.Rater{Controller: controller},
		BatchSize:   *batchSize,
		StatusFunc: func(b anysgd.Batch) {
			epoch := sgd.NumProcessed / samples.Len()
			if epoch > lastEpoch && costCount > 0 {
				mean := costSum / float64(costCount)
				log.Printf("epoch %d: train_score=%f", lastEpoch+1, mean)
				err := controller.SetEpochError(lastEpoch+1, map[string]lrcontrol.Measure{
					"train_score": lrcontrol.Scalar(mean),
				})
				if err != nil {
					essentials.Die(err)
				}
				costSum, costCount = 0, 0
				lastEpoch = epoch
			}
			if trainer.LastCost != nil {
				costSum += float64(trainer.LastCost.(float32))
				costCount++
			}
		},
	}

	log.Println("Press ctrl+c once to stop...")
	sgd.Run(rip.NewRIP().Chan())
}
