package pricing

import (
	"context"
	"crypto/md5"
	"math"
	"math/big"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/pricetrack/api/internal/cache"
)

// Source describes one external price source. The URL template contains a
// {query} placeholder; PricePattern locates the price token in the response
// body so ExtractPrice can parse it.
type Source struct {
	Name         string
	URL          string
	PricePattern *regexp.Regexp
}

// DefaultSources mirrors the retail sources the tracker queries. The first
// entry is used when no store hint is given.
var DefaultSources = []Source{
	{Name: "Amazon", URL: "https://www.amazon.com/s?k={query}", PricePattern: regexp.MustCompile(`a-offscreen">\s*\$([0-9][0-9,]*\.?[0-9]*)`)},
	{Name: "Apple", URL: "https://www.apple.com/us/search/{query}", PricePattern: regexp.MustCompile(`as-price-current[^$]*\$([0-9][0-9,]*\.?[0-9]*)`)},
	{Name: "Best Buy", URL: "https://www.bestbuy.com/site/searchpage.jsp?st={query}", PricePattern: regexp.MustCompile(`customer-price[^$]*\$([0-9][0-9,]*\.?[0-9]*)`)},
	{Name: "Walmart", URL: "https://www.walmart.com/search?q={query}", PricePattern: regexp.MustCompile(`price-main[^$]*\$([0-9][0-9,]*\.?[0-9]*)`)},
	{Name: "Target", URL: "https://www.target.com/s?searchTerm={query}", PricePattern: regexp.MustCompile(`CurrentPriceValue[^$]*\$([0-9][0-9,]*\.?[0-9]*)`)},
	{Name: "Samsung", URL: "https://www.samsung.com/us/search/{query}", PricePattern: regexp.MustCompile(`"price"[^0-9]*([0-9][0-9,]*\.?[0-9]*)`)},
	{Name: "Olive Young", URL: "https://www.oliveyoung.com/search/search.do?query={query}", PricePattern: regexp.MustCompile(`"price"[^0-9]*([0-9][0-9,]*\.?[0-9]*)`)},
}

// keywordPrice is one entry of the ordered keyword table. Order matters:
// the first keyword contained in the product name wins.
type keywordPrice struct {
	keyword string
	price   float64
}

var keywordBasePrices = []keywordPrice{
	{"iphone", 799.99},
	{"samsung", 699.99},
	{"macbook", 1299.99},
	{"dell", 899.99},
	{"playstation", 499.99},
	{"xbox", 399.99},
	{"airpods", 149.99},
	{"gopro", 349.99},
	{"drone", 799.99},
	{"watch", 249.99},
	{"headphones", 199.99},
	{"speaker", 129.99},
	{"tablet", 349.99},
	{"laptop", 799.99},
	{"tv", 599.99},
	{"monitor", 249.99},
	{"camera", 499.99},
}

// iphoneModelPrices is checked top to bottom; more specific variants first
// so "15 pro max" is not shadowed by "15".
var iphoneModelPrices = []keywordPrice{
	{"15 pro max", 1199.99},
	{"15 pro", 999.99},
	{"15 plus", 899.99},
	{"15", 799.99},
	{"14 pro max", 1099.99},
	{"14 pro", 899.99},
	{"14 plus", 799.99},
	{"14", 699.99},
	{"13", 599.99},
	{"12", 499.99},
}

// Oracle resolves a product name (and optional store hint) to a price.
// It never fails outward: when the external fetch does not yield a usable
// number it falls back to the synthetic generator.
type Oracle struct {
	client  *resty.Client
	sources []Source
	cache   *cache.PriceCache // nil disables caching

	mu  sync.Mutex
	rng *rand.Rand
}

// NewOracle constructs an Oracle. priceCache may be nil. The rng is the only
// source of randomness so callers can seed it for deterministic tests.
func NewOracle(timeout time.Duration, priceCache *cache.PriceCache, rng *rand.Rand) *Oracle {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeaders(map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		"Accept-Language": "en-US,en;q=0.9",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Referer":         "https://www.google.com/",
	})

	return &Oracle{
		client:  client,
		sources: DefaultSources,
		cache:   priceCache,
		rng:     rng,
	}
}

// Fetch returns a price for the product. With a store hint the named source is
// tried (case-insensitive match); otherwise the first configured source is the
// default. Any fetch failure falls through to the synthetic generator.
func (o *Oracle) Fetch(ctx context.Context, productName, store string) float64 {
	source := o.resolveSource(store)
	if source != nil {
		if price, ok := o.cachedPrice(ctx, source.Name, productName); ok {
			return price
		}
		if price, ok := o.scrape(ctx, source, productName); ok {
			o.storePrice(ctx, source.Name, productName, price)
			return round2(price)
		}
	}

	log.Debug().Str("product", productName).Str("store", store).
		Msg("external fetch failed, using fallback price generation")
	return o.GenerateFallback(productName)
}

// resolveSource picks the source for a store hint, or the default source when
// the hint is empty. Returns nil on a lookup miss so the caller falls back.
func (o *Oracle) resolveSource(store string) *Source {
	if store == "" {
		if len(o.sources) == 0 {
			return nil
		}
		return &o.sources[0]
	}
	for i := range o.sources {
		if strings.EqualFold(o.sources[i].Name, store) {
			return &o.sources[i]
		}
	}
	return nil
}

// scrape performs one bounded HTTP fetch against a source and tries to parse
// a price out of the body.
func (o *Oracle) scrape(ctx context.Context, source *Source, productName string) (float64, bool) {
	query := strings.ReplaceAll(productName, " ", "+")
	url := strings.ReplaceAll(source.URL, "{query}", query)

	resp, err := o.client.R().SetContext(ctx).Get(url)
	if err != nil {
		log.Debug().Err(err).Str("source", source.Name).Msg("price fetch failed")
		return 0, false
	}
	if resp.StatusCode() != 200 {
		log.Debug().Int("status", resp.StatusCode()).Str("source", source.Name).Msg("price fetch non-200")
		return 0, false
	}

	match := source.PricePattern.FindStringSubmatch(resp.String())
	if len(match) < 2 {
		return 0, false
	}
	price, ok := ExtractPrice(match[1])
	if !ok || price <= 0 {
		return 0, false
	}
	log.Debug().Float64("price", price).Str("source", source.Name).Str("product", productName).Msg("price scraped")
	return price, true
}

func (o *Oracle) cachedPrice(ctx context.Context, store, productName string) (float64, bool) {
	if o.cache == nil {
		return 0, false
	}
	return o.cache.Get(ctx, store, productName)
}

// storePrice caches a successfully scraped price. Fallback prices are never
// cached: their jitter must stay visible across calls.
func (o *Oracle) storePrice(ctx context.Context, store, productName string, price float64) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Set(ctx, store, productName, price); err != nil {
		log.Warn().Err(err).Msg("price cache write failed")
	}
}

// ExtractPrice strips every character except digits and the decimal point and
// parses the remainder as a float. Returns false when nothing parseable is left.
func ExtractPrice(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	price, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// GenerateFallback synthesizes a price from the product name alone. The
// tier/multiplier path is fully determined by the name; only the final jitter
// differs between calls.
func (o *Oracle) GenerateFallback(productName string) float64 {
	lower := strings.ToLower(productName)

	// iPhones get model-accurate pricing with a storage surcharge.
	if strings.Contains(lower, "iphone") {
		base := 799.99
		for _, m := range iphoneModelPrices {
			if strings.Contains(lower, m.keyword) {
				base = m.price
				break
			}
		}

		switch {
		case strings.Contains(lower, "1tb") || strings.Contains(lower, "1 tb"):
			base += 400
		case strings.Contains(lower, "512gb") || strings.Contains(lower, "512 gb"):
			base += 200
		case strings.Contains(lower, "256gb") || strings.Contains(lower, "256 gb"):
			base += 100
		}

		jitter := o.uniform(-20, 20)
		return round2(base + jitter)
	}

	// Keyword table; first matching keyword wins.
	base := 0.0
	found := false
	for _, kp := range keywordBasePrices {
		if strings.Contains(lower, kp.keyword) {
			base = kp.price
			found = true
			break
		}
	}
	if !found {
		// No keyword matched: derive a stable base from the name hash,
		// mapped into [100, 999].
		base = 100 + float64(hashMod(lower, 900))
	}

	// Jitter is drawn against the pre-multiplier base.
	jitter := o.uniform(-0.05, 0.05) * base

	// At most one variant multiplier applies.
	switch {
	case strings.Contains(lower, "pro"):
		base *= 1.5
	case strings.Contains(lower, "max"):
		base *= 1.8
	case strings.Contains(lower, "plus") || strings.Contains(lower, "+"):
		base *= 1.3
	}

	// Generation surcharge: the lowest digit 1..19 present in the raw name.
	for i := 1; i < 20; i++ {
		if strings.Contains(productName, strconv.Itoa(i)) {
			base *= 1 + float64(i)*0.05
			break
		}
	}

	return round2(base + jitter)
}

// uniform draws from [lo, hi). Serialized: the oracle is shared between
// request handlers and the refresh worker.
func (o *Oracle) uniform(lo, hi float64) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return lo + o.rng.Float64()*(hi-lo)
}

// hashMod interprets the md5 digest of s as a big integer and reduces it
// modulo m.
func hashMod(s string, m int64) int64 {
	sum := md5.Sum([]byte(s))
	n := new(big.Int).SetBytes(sum[:])
	return n.Mod(n, big.NewInt(m)).Int64()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
