package group

import "github.com/cocosip/go-modular-ma-ans/modular/channel"

// SelectChannels implements spec section 6.3's channel iteration
// policy: start at options.skipchannels, skip zero-sized channels,
// always process meta channels, and for data channels stop at the
// first one exceeding MaxChanSize. Encoder and decoder call this
// identically so they always agree on which channels carry a stream.
func SelectChannels(image *channel.Image, opts Options) []int {
	var sel []int
	for i := opts.SkipChannels; i < len(image.Channels); i++ {
		c := image.Channels[i]
		if c.W == 0 || c.H == 0 {
			continue
		}
		if i >= image.NbMetaChannels && opts.MaxChanSize > 0 &&
			(c.W > opts.MaxChanSize || c.H > opts.MaxChanSize) {
			break
		}
		sel = append(sel, i)
	}
	return sel
}
