// Package seed loads initial orders and products from JSON files.
//
// A seed file looks like:
//
//	{
//	  "products": [{"name": "Widget", "price": 10}],
//	  "orders": [{"customerName": "Ana", "products": [0], "closed": true}]
//	}
//
// Order products reference entries of the products array of the same file by
// index. Files ending in ".gz" are gzip compressed.
package seed

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"
)

const readBufSize = 4096

// Product is a catalog entry to create. Price is nil when the file has no
// price or a null one.
type Product struct {
	Name  string
	Price *float64
}

// Order is an order to create. Products holds indexes into Data.Products.
type Order struct {
	CustomerName string
	Products     []int
	Closed       bool
}

// Data is the decoded content of one seed file.
type Data struct {
	Products []Product
	Orders   []Order
}

// Decode reads a seed document from r. Unknown fields are ignored.
func Decode(r io.Reader) (Data, error) {
	var data Data
	d := jx.Decode(r, readBufSize)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "products":
			return d.Arr(func(d *jx.Decoder) error {
				p, err := decodeProduct(d)
				if err != nil {
					return errors.Wrapf(err, "product %d", len(data.Products))
				}
				data.Products = append(data.Products, p)
				return nil
			})
		case "orders":
			return d.Arr(func(d *jx.Decoder) error {
				o, err := decodeOrder(d)
				if err != nil {
					return errors.Wrapf(err, "order %d", len(data.Orders))
				}
				data.Orders = append(data.Orders, o)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return Data{}, errors.Wrap(err, "decode seed")
	}
	return data, nil
}

func decodeProduct(d *jx.Decoder) (Product, error) {
	var p Product
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "name":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "name")
			}
			p.Name = v
		case "price":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := d.Float64()
			if err != nil {
				return errors.Wrap(err, "price")
			}
			p.Price = &v
		default:
			return d.Skip()
		}
		return nil
	})
	return p, err
}

func decodeOrder(d *jx.Decoder) (Order, error) {
	var o Order
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "customerName":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "customerName")
			}
			o.CustomerName = v
		case "products":
			return d.Arr(func(d *jx.Decoder) error {
				v, err := d.Int()
				if err != nil {
					return errors.Wrap(err, "products")
				}
				o.Products = append(o.Products, v)
				return nil
			})
		case "closed":
			v, err := d.Bool()
			if err != nil {
				return errors.Wrap(err, "closed")
			}
			o.Closed = v
		default:
			return d.Skip()
		}
		return nil
	})
	return o, err
}

// ReadFile decodes the seed file at path, decompressing it when the name
// ends in ".gz".
func ReadFile(path string) (Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return Data{}, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return Data{}, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := Decode(r)
	if err != nil {
		return Data{}, errors.Wrapf(err, "read %s", path)
	}
	return data, nil
}

// ReadFiles reads all paths concurrently. The result keeps the order of
// paths; the first failure cancels the remaining reads.
func ReadFiles(ctx context.Context, paths []string) ([]Data, error) {
	out := make([]Data, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := ReadFile(path)
			if err != nil {
				return err
			}
			out[i] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
