package overlay

import (
	"github.com/google/uuid"
	"github.com/speedata/svgoverlay/bag"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

type job struct {
	markup []byte
	img    *html.Node
}

// Conversion tracks the background encodings started by one call of
// ConvertAllSVGsToPngs.
type Conversion struct {
	id       string
	overlays []*html.Node
	done     chan struct{}
}

func newConversion() *Conversion {
	return &Conversion{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
}

// ID is the unique id of the conversion. Every overlay it created carries it
// in ConversionAttribute.
func (c *Conversion) ID() string {
	return c.id
}

// Len returns the number of overlays inserted.
func (c *Conversion) Len() int {
	return len(c.overlays)
}

// Done is closed when every encoding has finished, successful or not.
func (c *Conversion) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until Done is closed.
func (c *Conversion) Wait() {
	<-c.done
}

func (t *Toggle) run(c *Conversion, jobs []job) {
	defer close(c.done)
	var g errgroup.Group
	g.SetLimit(t.concurrency)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			data, err := t.enc.EncodeDataURL(t.ctx, j.markup)
			if err != nil {
				bag.Logger.Debugf("Encoding failed (conversion %s): %s", c.id, err)
				return nil
			}
			if data == "" {
				bag.Logger.Debugf("Encoder returned no data (conversion %s)", c.id)
				return nil
			}
			t.mu.Lock()
			setAttr(j.img, "src", data)
			t.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	bag.Logger.Debugf("Conversion %s finished", c.id)
}
