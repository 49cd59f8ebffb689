package nvrhi

import "testing"

func TestTextureBindingKeyEquality(t *testing.T) {
	desc := TextureDesc{Width: 64, Height: 64, MipLevels: 4, ArraySize: 1, Format: FormatRGBA8Unorm}

	// Two spellings of the same view must produce equal keys once resolved.
	a := TextureBindingKey{Subresources: AllSubresources.Resolve(desc), Format: FormatRGBA8Unorm}
	b := TextureBindingKey{
		Subresources: TextureSubresourceSet{NumMipLevels: 4, NumArraySlices: 1}.Resolve(desc),
		Format:       FormatRGBA8Unorm,
	}
	if a != b {
		t.Errorf("keys differ: %+v vs %+v", a, b)
	}
	if a.Hash() != b.Hash() {
		t.Errorf("equal keys hash differently: %x vs %x", a.Hash(), b.Hash())
	}
}

func TestTextureBindingKeyFieldsAffectHash(t *testing.T) {
	base := TextureBindingKey{
		Subresources: TextureSubresourceSet{NumMipLevels: 1, NumArraySlices: 1},
		Format:       FormatRGBA8Unorm,
	}
	variants := []TextureBindingKey{
		{Subresources: TextureSubresourceSet{BaseMipLevel: 1, NumMipLevels: 1, NumArraySlices: 1}, Format: FormatRGBA8Unorm},
		{Subresources: base.Subresources, Format: FormatBGRA8Unorm},
		{Subresources: base.Subresources, Format: FormatRGBA8Unorm, IsReadOnlyDSV: true},
	}
	for _, v := range variants {
		if v == base {
			t.Errorf("variant equals base: %+v", v)
			continue
		}
		if v.Hash() == base.Hash() {
			t.Errorf("distinct key hashes equal to base: %+v", v)
		}
	}
}

func TestBufferBindingKeyHash(t *testing.T) {
	a := BufferBindingKey{Range: BufferRange{ByteOffset: 0, ByteSize: 256}, Type: BufferViewStructured}
	b := a
	if a.Hash() != b.Hash() {
		t.Error("identical keys hash differently")
	}
	c := BufferBindingKey{Range: BufferRange{ByteOffset: 256, ByteSize: 256}, Type: BufferViewStructured}
	if a.Hash() == c.Hash() {
		t.Error("offset change did not affect hash")
	}
	d := BufferBindingKey{Range: a.Range, Type: BufferViewRaw}
	if a.Hash() == d.Hash() {
		t.Error("view type change did not affect hash")
	}
}

func TestBindingKeysUsableAsMapKeys(t *testing.T) {
	m := map[TextureBindingKey]int{}
	k := TextureBindingKey{Subresources: TextureSubresourceSet{NumMipLevels: 1, NumArraySlices: 1}}
	m[k]++
	m[k]++
	if m[k] != 2 {
		t.Errorf("map lookup through equal key failed: %d", m[k])
	}
}
