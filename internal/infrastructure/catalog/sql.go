package catalog

const productColumns = `
	p.id, p.name, p.category_id, COALESCE(c.name, ''), p.brand_id, COALESCE(b.name, ''),
	p.is_active, COALESCE(p.rating_average, 0), COALESCE(p.sales_count, 0)`

const productFrom = `
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN brands b ON b.id = p.brand_id`

const getProductSQL = `SELECT` + productColumns + productFrom + `
	WHERE p.id = $1`

const getProductsSQL = `SELECT` + productColumns + productFrom + `
	WHERE p.id = ANY($1)
	ORDER BY p.id`

const productOrder = `
	ORDER BY p.rating_average DESC NULLS LAST, p.sales_count DESC NULLS LAST, p.id ASC`

const deliveredOrderItemsSQL = `
	SELECT oi.order_id, oi.product_id
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	WHERE o.status = 'delivered'
	  AND oi.order_id IN (
	      SELECT order_id FROM order_items WHERE product_id = $1
	  )
	ORDER BY o.created_at, oi.order_id, oi.id`
