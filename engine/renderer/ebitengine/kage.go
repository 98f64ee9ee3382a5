//go:build ebitengine

package ebitengine

// The pixel programs sample in texel units and wrap inside the source
// region, so scrolled sprites repeat like on the other backends.

const kageDefault = `//kage:unit pixels

package main

var AlphaRef float

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	local := mod(srcPos-origin, imageSrc0Size())
	c := imageSrc0At(local+origin) * color
	if c.a < AlphaRef {
		discard()
	}
	return c
}
`

const kageModulate = `//kage:unit pixels

package main

var AlphaRef float

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	local := mod(srcPos-origin, imageSrc0Size())
	c := imageSrc0At(local+origin) * color * imageSrc1At(local+imageSrc1Origin())
	if c.a < AlphaRef {
		discard()
	}
	return c
}
`

const kageAdd = `//kage:unit pixels

package main

var AlphaRef float

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	local := mod(srcPos-origin, imageSrc0Size())
	c := imageSrc0At(local+origin) * color
	p := imageSrc1At(local + imageSrc1Origin())
	if p.a > 0 {
		c.rgb += p.rgb / p.a * c.a
	}
	if c.a < AlphaRef {
		discard()
	}
	return c
}
`
