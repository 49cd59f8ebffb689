package nvrhi

import "testing"

func TestFormatTableOrder(t *testing.T) {
	// The table is indexed by Format ordinal; each entry must describe the
	// format at its own index or every lookup is silently wrong.
	for i, info := range formatInfos {
		if info.Format != Format(i) {
			t.Errorf("formatInfos[%d] describes %v", i, info.Format)
		}
	}
}

func TestFormatInfo(t *testing.T) {
	if got := FormatRGBA8Unorm.Info(); got.BytesPerPixel != 4 || got.HasDepth {
		t.Errorf("RGBA8Unorm info = %+v", got)
	}
	if got := FormatDepth24Stencil8.Info(); !got.HasDepth || !got.HasStencil {
		t.Errorf("Depth24Stencil8 info = %+v", got)
	}
	// Out-of-range formats degrade to the Unknown entry.
	if got := Format(9999).Info(); got.Format != FormatUnknown {
		t.Errorf("out-of-range info = %+v", got)
	}
}

func TestFormatString(t *testing.T) {
	if got := FormatBGRA8UnormSRGB.String(); got != "BGRA8UnormSRGB" {
		t.Errorf("String() = %q", got)
	}
}
