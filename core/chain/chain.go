package chain

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/parsafarid/socks6chain/core/net/protocol/socks6"
)

// ErrChainConfigInvalid reports that metadata keys 998/999 were present but
// could not be parsed as the chain index/length they're supposed to carry.
var ErrChainConfigInvalid = errors.New("chain: invalid chain metadata")

// SocksChain is the proxy chain attached to a request: an ordered list of
// hops and the index of the one about to be contacted. index == len(Links)
// means the chain is exhausted — the current handler terminates directly at
// the destination rather than forwarding to another hop.
type SocksChain struct {
	Index uint64
	Links []ProxyAddress
}

// Exhausted reports whether every link in the chain has already been
// consulted, i.e. this handler is the last hop.
func (c SocksChain) Exhausted() bool {
	return c.Index >= uint64(len(c.Links))
}

// NextHop returns the link this handler should dial, or false if the chain
// is exhausted.
func (c SocksChain) NextHop() (ProxyAddress, bool) {
	if c.Exhausted() {
		return ProxyAddress{}, false
	}
	return c.Links[c.Index], true
}

// Resolve reconstructs the chain carried in a request's metadata and splices
// a static detour list into it, per 4.6: when detour is non-empty its
// entries are inserted ahead of the index the request already carries,
// pushing the request's own suffix to the right. Returns ok=false when the
// resulting chain has no links at all, meaning this handler should
// terminate directly at the request's destination.
func Resolve(metadata map[uint16]string, detour []ProxyAddress) (SocksChain, bool, error) {
	chain, err := fromMetadata(metadata)
	if err != nil {
		return SocksChain{}, false, err
	}

	if len(detour) > 0 {
		links := make([]ProxyAddress, 0, len(chain.Links)+len(detour))
		links = append(links, chain.Links[:chain.Index]...)
		links = append(links, detour...)
		links = append(links, chain.Links[chain.Index:]...)
		chain.Links = links
	}

	if len(chain.Links) == 0 {
		return SocksChain{}, false, nil
	}
	return chain, true, nil
}

// fromMetadata reads keys 999 (chain length), 998 (current index) and
// 1000..1000+length (the links themselves, each a ProxyAddress string) out
// of a request's metadata map. Absence of key 999 yields an empty chain.
func fromMetadata(metadata map[uint16]string) (SocksChain, error) {
	lengthStr, ok := metadata[socks6.MetadataKeyChainLength]
	if !ok {
		return SocksChain{}, nil
	}
	length, err := strconv.ParseUint(lengthStr, 10, 64)
	if err != nil {
		return SocksChain{}, fmt.Errorf("%w: chain length %q: %v", ErrChainConfigInvalid, lengthStr, err)
	}

	var index uint64
	if indexStr, ok := metadata[socks6.MetadataKeyChainIndex]; ok {
		index, err = strconv.ParseUint(indexStr, 10, 64)
		if err != nil {
			return SocksChain{}, fmt.Errorf("%w: chain index %q: %v", ErrChainConfigInvalid, indexStr, err)
		}
	}

	links := make([]ProxyAddress, 0, length)
	for i := uint64(0); i < length; i++ {
		key := uint16(socks6.MetadataKeyChainBase + i)
		raw, ok := metadata[key]
		if !ok {
			continue
		}
		addr, err := ParseProxyAddress(raw)
		if err != nil {
			return SocksChain{}, err
		}
		links = append(links, addr)
	}

	return SocksChain{Index: index, Links: links}, nil
}

// ForwardOptions builds the metadata options the handler attaches to the
// request it forwards to the next hop: the advanced index, the (possibly
// grown) chain length, and every link re-serialized at keys 1000..
func (c SocksChain) ForwardOptions() []socks6.SocksOption {
	opts := make([]socks6.SocksOption, 0, 2+len(c.Links))
	opts = append(opts, socks6.MetadataSocksOption(socks6.MetadataKeyChainIndex, strconv.FormatUint(c.Index+1, 10)))
	opts = append(opts, socks6.MetadataSocksOption(socks6.MetadataKeyChainLength, strconv.Itoa(len(c.Links))))
	for i, link := range c.Links {
		opts = append(opts, socks6.MetadataSocksOption(uint16(socks6.MetadataKeyChainBase+i), link.String()))
	}
	return opts
}
