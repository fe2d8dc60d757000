package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tournevent/mwslabels/pkg/mws/inbound"
	"go.uber.org/zap"
)

var labelsFlags struct {
	shipmentID string
	pageType   string
	count      int
	cartonIDs  []string
	out        string
	verify     bool
}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Fetch the unique package labels of an inbound shipment",
	RunE:  runLabels,
}

func init() {
	f := labelsCmd.Flags()
	f.StringVar(&labelsFlags.shipmentID, "shipment-id", "", "inbound shipment id (required)")
	f.StringVar(&labelsFlags.pageType, "page-type", string(inbound.PageLetter2), "PackageLabel_Letter_2 or PackageLabel_Letter_6")
	f.IntVar(&labelsFlags.count, "count", 1, "number of labels to print")
	f.StringSliceVar(&labelsFlags.cartonIDs, "carton-id", nil, "carton ids to print labels for (overrides --count)")
	f.StringVarP(&labelsFlags.out, "out", "o", "", "write the decoded label archive to this file")
	f.BoolVar(&labelsFlags.verify, "verify", true, "verify the document checksum")
	_ = labelsCmd.MarkFlagRequired("shipment-id")
}

func runLabels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	labels := inbound.New(initBackend(cfg, logger, tracer), logger, tracer)

	if err := labels.SetShipmentID(labelsFlags.shipmentID); err != nil {
		return err
	}
	if err := labels.SetPageType(inbound.PageType(labelsFlags.pageType)); err != nil {
		return err
	}
	if len(labelsFlags.cartonIDs) > 0 {
		err = labels.SetPackageLabelIDs(labelsFlags.cartonIDs...)
	} else {
		err = labels.SetPackageLabelsToPrint(labelsFlags.count)
	}
	if err != nil {
		return err
	}

	if err := labels.GetPackageLabels(ctx); err != nil {
		return fmt.Errorf("fetching labels: %w", err)
	}

	doc, err := labels.PdfDocument()
	if err != nil {
		return err
	}

	switch {
	case !labelsFlags.verify:
	case doc.Checksum == nil:
		logger.Warn("Response has no checksum, skipping verification",
			zap.String("shipment_id", labelsFlags.shipmentID),
		)
	default:
		if err := doc.VerifyChecksum(); err != nil {
			return err
		}
	}

	if labelsFlags.out == "" {
		fields := doc.Map()
		for _, k := range []string{inbound.KeyPdfDocument, inbound.KeyChecksum} {
			if v, ok := fields[k]; ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", k, v)
			}
		}
		return nil
	}

	data, err := doc.Decode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(labelsFlags.out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", labelsFlags.out, err)
	}

	logger.Info("Labels written",
		zap.String("shipment_id", labelsFlags.shipmentID),
		zap.String("file", labelsFlags.out),
		zap.Int("bytes", len(data)),
	)
	return nil
}
