// Command smartshop-cli runs an interactive shopping session in the
// terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bearuzish-arch/SmartShop/catalog"
	"github.com/bearuzish-arch/SmartShop/config"
	ledger "github.com/bearuzish-arch/SmartShop/ledger/logic"
	ledgerstore "github.com/bearuzish-arch/SmartShop/ledger/store"
	pricing "github.com/bearuzish-arch/SmartShop/pricing/logic"
	"github.com/bearuzish-arch/SmartShop/session"
)

const helpText = `commands:
  products [query] [price-asc|price-desc|rating-desc]
  reviews
  add <product-id>            add one unit (refused if unaffordable)
  inc <product-id> [n]        +n, default 1
  dec <product-id> [n]        -n, removed at zero
  rm <product-id>
  coupon <code>
  cart
  topup                       add 1000
  reset                       balance back to 1000
  checkout
  quit`

type shell struct {
	session *session.Session
	catalog *catalog.Live
	out     io.Writer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := zap.NewNop()
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var store ledger.Store = ledger.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rs := ledgerstore.NewRedisStore(cfg.RedisAddr, logger.Named("redis"))
		defer rs.Close()
		if err := rs.Initialize(ctx, 3); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		store = rs
	}

	l, err := ledger.Open(ctx, store, ledger.WithLogger(logger.Named("ledger")))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	live := catalog.NewLive(nil, nil)
	source := catalog.NewSource(nil, logger.Named("catalog"))
	go source.LoadInto(ctx, live, cfg.CatalogURL, cfg.ReviewsURL)

	sh := &shell{
		session: session.New(l,
			session.WithFees(pricing.Fees{Delivery: cfg.DeliveryFee, Shipping: cfg.ShippingFee}),
			session.WithCatalog(live),
			session.WithLogger(logger.Named("session")),
		),
		catalog: live,
		out:     os.Stdout,
	}
	sh.run(ctx, os.Stdin)
}

// run reads commands from in until EOF, "quit" or ctx is done.
func (sh *shell) run(ctx context.Context, in io.Reader) {
	fmt.Fprintf(sh.out, "%sSmartShop%s  balance %s  (type help)\n", Bold, Reset, money(sh.session.Balance()))
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, "> ")
		if ctx.Err() != nil || !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if !sh.exec(ctx, fields[0], fields[1:]) {
			return
		}
	}
}

// exec runs one command and reports whether the shell should continue.
func (sh *shell) exec(ctx context.Context, cmd string, args []string) bool {
	switch strings.ToLower(cmd) {
	case "help", "?":
		fmt.Fprintln(sh.out, helpText)

	case "products", "ls":
		query, sortKey := "", ""
		for _, a := range args {
			switch a {
			case catalog.SortPriceAsc, catalog.SortPriceDesc, catalog.SortRatingDesc:
				sortKey = a
			default:
				query = strings.TrimSpace(query + " " + a)
			}
		}
		printProducts(sh.out, catalog.Window(catalog.Sort(sh.catalog.Catalog().Search(query), sortKey)))

	case "reviews":
		printReviews(sh.out, sh.catalog.Reviews())

	case "add":
		if !sh.requireArg(args) {
			break
		}
		if err := sh.session.AddProduct(ctx, args[0]); err != nil {
			printError(sh.out, err)
			break
		}
		sh.showCart()

	case "additem":
		// additem <id> <price> [qty] adds an item that is not in the catalog.
		if len(args) < 2 {
			printError(sh.out, fmt.Errorf("usage: additem <id> <price> [qty]"))
			break
		}
		price, err := decimal.NewFromString(args[1])
		if err != nil {
			printError(sh.out, err)
			break
		}
		qty := 1
		if len(args) > 2 {
			if qty, err = strconv.Atoi(args[2]); err != nil {
				printError(sh.out, err)
				break
			}
		}
		if err := sh.session.AddItem(ctx, args[0], args[0], price, qty); err != nil {
			printError(sh.out, err)
			break
		}
		sh.showCart()

	case "inc", "+", "dec", "-":
		if !sh.requireArg(args) {
			break
		}
		n := 1
		if len(args) > 1 {
			var err error
			if n, err = strconv.Atoi(args[1]); err != nil || n < 0 || n > math.MaxInt32 {
				printError(sh.out, fmt.Errorf("step must be a non-negative whole number"))
				break
			}
		}
		if c := strings.ToLower(cmd); c == "dec" || c == "-" {
			n = -n
		}
		sh.session.ChangeQuantity(args[0], n)
		sh.showCart()

	case "rm", "remove":
		if sh.requireArg(args) {
			sh.session.RemoveItem(args[0])
			sh.showCart()
		}

	case "coupon":
		c, err := sh.session.ApplyCoupon(strings.Join(args, " "))
		if err != nil {
			printError(sh.out, err)
		} else {
			fmt.Fprintf(sh.out, "%sCoupon applied: %s%s\n", Green, c.Description, Reset)
		}
		sh.showCart()

	case "cart":
		sh.showCart()

	case "topup":
		if _, err := sh.session.AddMoney(ctx); err != nil {
			printError(sh.out, err)
		}
		sh.showCart()

	case "reset":
		if _, err := sh.session.ResetBalance(ctx); err != nil {
			printError(sh.out, err)
		}
		sh.showCart()

	case "checkout":
		receipt, err := sh.session.Checkout(ctx)
		if err != nil {
			printError(sh.out, err)
			break
		}
		printReceipt(sh.out, receipt)

	case "quit", "exit", "q":
		return false

	default:
		printError(sh.out, fmt.Errorf("unknown command %q, type help", cmd))
	}
	return true
}

func (sh *shell) requireArg(args []string) bool {
	if len(args) == 0 {
		printError(sh.out, fmt.Errorf("product id required"))
		return false
	}
	return true
}

func (sh *shell) showCart() {
	v := sh.session.View()
	printCart(sh.out, v.Cart, v.Totals, v.Balance, v.Warning)
}
