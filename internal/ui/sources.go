package ui

import (
	"fmt"
	"strings"

	"github.com/birddog-tools/bdctl/internal/birddog"
)

// RenderSourceList formats an NDI source listing. The source the decoder is
// currently tuned to is marked with an arrow.
func RenderSourceList(sources []birddog.NdiSource) string {
	if len(sources) == 0 {
		return MutedStyle.Render("  no NDI sources visible to the device") + "\n"
	}

	var b strings.Builder
	for _, src := range sources {
		marker := "   "
		name := src.Name
		if src.IsCurrent {
			marker = CurrentMarker
			name = CurrentStyle.Render(name)
		}
		b.WriteString(fmt.Sprintf(" %s %2d  %s", marker, src.Index, name))
		if src.Address != "" {
			b.WriteString("  " + MutedStyle.Render(src.Address))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderCurrentSource formats the currently selected source line.
func RenderCurrentSource(src *birddog.NdiSource) string {
	if src == nil || src.Name == "" {
		return MutedStyle.Render("no source selected") + "\n"
	}
	line := CurrentStyle.Render(src.Name)
	if src.Address != "" {
		line += "  " + MutedStyle.Render(src.Address)
	}
	return line + "\n"
}

// RenderSettings formats a full device settings readout.
func RenderSettings(settings *birddog.DeviceSettings) string {
	var b strings.Builder
	writeField(&b, "Mode", settings.OperationMode.String())
	writeField(&b, "Video output", settings.VideoOutput.String())
	b.WriteString(RenderAudioSetup(&settings.AudioSetup))
	return b.String()
}

// RenderAudioSetup formats the analog audio configuration.
func RenderAudioSetup(setup *birddog.AudioOutputSetup) string {
	var b strings.Builder
	writeField(&b, "Input gain", fmt.Sprintf("%d", setup.InputGain))
	writeField(&b, "Output gain", fmt.Sprintf("%d", setup.OutputGain))
	writeField(&b, "Output select", setup.OutputSelect.String())
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(LabelStyle.Render(label+":") + " " + ValueStyle.Render(value) + "\n")
}
