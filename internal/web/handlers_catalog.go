package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/partsbridge/marketplace/internal/catalog"
	"github.com/partsbridge/marketplace/pkg/enums"
)

type catalogPage struct {
	Categories []catalog.CategoryDTO
	Products   []catalog.ProductSummary
	Query      ProductQuery
	NextURL    string
}

type productPage struct {
	Product  *catalog.ProductDetail
	CanBuy   bool
	CanQuote bool
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	q := r.URL.Query()
	query := ProductQuery{
		CategoryID: q.Get("category_id"),
		Search:     strings.TrimSpace(q.Get("q")),
		InStock:    q.Get("in_stock") == "true",
		Cursor:     q.Get("cursor"),
		Limit:      24,
	}

	var page catalogPage
	page.Query = query
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		categories, err := s.api.Categories(gctx)
		page.Categories = categories
		return err
	})
	g.Go(func() error {
		list, err := s.api.Products(gctx, query)
		if err != nil {
			return err
		}
		page.Products = list.Products
		if list.NextCursor != "" {
			next := url.Values{}
			for key, values := range q {
				next[key] = values
			}
			next.Set("cursor", list.NextCursor)
			page.NextURL = "/products?" + next.Encode()
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.failPage(w, r, sess, err)
		return
	}
	s.render(w, r, sess, http.StatusOK, "products", "Catalog", page)
}

func (s *Server) showProduct(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	product, err := s.api.Product(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		s.failPage(w, r, sess, err)
		return
	}
	s.render(w, r, sess, http.StatusOK, "product", product.Name, productPage{
		Product:  product,
		CanBuy:   !sess.SignedIn() || sess.HasRole(enums.UserRoleCustomer),
		CanQuote: sess.HasRole(enums.UserRoleCustomer),
	})
}
